package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyc2021/runtime-programmable-switch/graph"
)

func Test_ParseMountPointMatches(t *testing.T) {
	n, err := ParseMountPoint("flex_func_mount_point_number_7$extra$")
	require.Nil(t, err)
	assert.Equal(t, 7, n)
}

func Test_ParseMountPointAnonymousIsNotAnError(t *testing.T) {
	n, err := ParseMountPoint("some_other_flex_name")
	require.Nil(t, err)
	assert.Equal(t, -1, n)
}

func Test_ParseMountPointNonMatchingDollarPattern(t *testing.T) {
	n, err := ParseMountPoint("flex_unrelated$thing$")
	require.Nil(t, err)
	assert.Equal(t, -1, n)
}

func Test_ParseMountPointNegativeIsInvalid(t *testing.T) {
	_, err := ParseMountPoint("flex_func_mount_point_number_-1$extra$")
	require.NotNil(t, err)
	assert.Equal(t, graph.InvalidCommandError, err.Code)
}
