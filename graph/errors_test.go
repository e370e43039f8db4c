package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_NewErrorSuccessIsNil(t *testing.T) {
	assert.Nil(t, NewError(Success, "anything"))
}

func Test_CodeOfNilIsSuccess(t *testing.T) {
	assert.Equal(t, Success, CodeOf(nil))
}

func Test_CodeOfReconfigError(t *testing.T) {
	err := NewError(PrefixError, "bad prefix %q", "x")
	assert.Equal(t, PrefixError, CodeOf(err))
	assert.Contains(t, err.Error(), "PREFIX_ERROR")
}

func Test_ReconfigErrorIs(t *testing.T) {
	a := NewError(UnfoundIDError, "missing")
	b := NewError(UnfoundIDError, "also missing")
	c := NewError(DupCheckError, "dup")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}
