package devctx

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyc2021/runtime-programmable-switch/graph"
)

func fakeLoader(text string) (*graph.Program, error) {
	program := graph.NewProgram()
	pipe := program.Pipeline("ingress")
	pipe.Nodes[text] = graph.NewTable(text)
	return program, nil
}

func Test_ContextStartsIdle(t *testing.T) {
	ctx := New(graph.NewProgram(), nil)
	assert.Equal(t, StateIdle, ctx.State())
}

func Test_InitP4ObjectsNewStagesAndClearsRegistry(t *testing.T) {
	ctx := New(graph.NewProgram(), nil)
	ctx.Registry.Register("new_stale", "stale_actual")

	err := ctx.InitP4ObjectsNew(func(r io.Reader) (*graph.Program, error) {
		return fakeLoader("new_foo")
	}, "new_foo")
	require.Nil(t, err)

	assert.Equal(t, StateStaged, ctx.State())
	require.Nil(t, ctx.Registry.DupCheck("new_stale"))
}

func Test_InitP4ObjectsNewRejectsEmptyText(t *testing.T) {
	ctx := New(graph.NewProgram(), nil)
	err := ctx.InitP4ObjectsNew(func(_ io.Reader) (*graph.Program, error) {
		return nil, nil
	}, "")
	require.NotNil(t, err)
	assert.Equal(t, graph.OpenJSONStreamFail, err.Code)
}

func Test_MarshalRunningUsesSaver(t *testing.T) {
	running := graph.NewProgram()
	running.Pipeline("ingress").Nodes["t"] = graph.NewTable("t")

	ctx := New(running, nil)
	text, err := ctx.MarshalRunning(func(w io.Writer, p *graph.Program) error {
		_, werr := w.Write([]byte("saved:" + p.Pipelines["ingress"].Name))
		return werr
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "saved:ingress"))
}
