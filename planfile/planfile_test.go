package planfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseSkipsBlankAndCommentLines(t *testing.T) {
	commands, err := ParseString("\n# a comment\n   \ntable_init ingress new_foo\n")
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, VerbTableInit, commands[0].Verb)
	assert.Equal(t, []string{"ingress", "new_foo"}, commands[0].Args)
	assert.Equal(t, 4, commands[0].Line)
}

func Test_ParseRejectsUnknownVerb(t *testing.T) {
	_, err := ParseString("frobnicate ingress new_foo")
	require.Error(t, err)
}

func Test_ParseAllVerbsRecognized(t *testing.T) {
	text := `
table_init ingress new_foo
table_change ingress new_foo __default__ new_bar
table_delete ingress new_foo
cond_init ingress new_c
cond_change ingress new_c true_next new_bar
cond_delete ingress new_c
flex_init ingress flx_x new_a new_b
flex_change ingress flx_x true_next new_a
flex_delete ingress flx_x
reg_init new_r 1024 32
reg_change new_r 0 2048
reg_delete new_r
trigger 1 -1
init_change ingress new_foo
`
	commands, err := ParseString(text)
	require.NoError(t, err)
	assert.Len(t, commands, 14)
}

func Test_CommandArgHelpers(t *testing.T) {
	commands, err := ParseString("reg_init new_r 1024 32")
	require.NoError(t, err)
	cmd := commands[0]

	size, err := cmd.ArgUint32(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), size)

	_, err = cmd.ArgUint32(10)
	assert.Error(t, err)

	n, err := cmd.ArgInt(1)
	require.NoError(t, err)
	assert.Equal(t, 1024, n)
}

func Test_CommandArgBool(t *testing.T) {
	commands, err := ParseString("trigger true -1")
	require.NoError(t, err)

	armed, err := commands[0].ArgBool(0)
	require.NoError(t, err)
	assert.True(t, armed)

	trigger, err := commands[0].ArgInt(1)
	require.NoError(t, err)
	assert.Equal(t, -1, trigger)
}
