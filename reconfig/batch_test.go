package reconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyc2021/runtime-programmable-switch/devctx"
	"github.com/dyc2021/runtime-programmable-switch/graph"
)

const stagedDocument = `{
  "pipelines": [
    {
      "name": "ingress",
      "init": "",
      "nodes": [
        {"name": "x", "kind": "table"},
        {"name": "y", "kind": "table"}
      ]
    }
  ],
  "register_arrays": []
}`

func newRunningProgram() *graph.Program {
	running := graph.NewProgram()
	pipe := running.Pipeline("ingress")
	pipe.Nodes["start"] = graph.NewTable("start")
	pipe.Init = "start"
	return running
}

func Test_RuntimeReconfigAppliesEveryCommand(t *testing.T) {
	ctx := devctx.New(newRunningProgram(), nil)
	ops := New(ctx, newTestMetrics(), nil)

	plan := "table_init ingress new_x\ntable_init ingress new_y\n"

	result := ops.RuntimeReconfig(context.Background(), stagedDocument, plan)
	assert.Equal(t, graph.Success, result.Code)
	assert.Equal(t, 2, result.AppliedCount)
	assert.Equal(t, 0, result.FailedLine)
	assert.NotEmpty(t, result.Snapshot)
}

func Test_RuntimeReconfigAbortsOnFirstFailure(t *testing.T) {
	ctx := devctx.New(newRunningProgram(), nil)
	ops := New(ctx, newTestMetrics(), nil)

	plan := "table_init ingress new_x\ntable_init ingress new_x\ntable_init ingress new_y\n"

	result := ops.RuntimeReconfig(context.Background(), stagedDocument, plan)
	assert.Equal(t, graph.DupCheckError, result.Code)
	assert.Equal(t, 2, result.FailedLine)
	assert.Equal(t, 1, result.AppliedCount)

	// new_x was applied before the failing duplicate; new_y was never
	// reached because the batch aborted at line 2.
	require.NotNil(t, ctx.Registry.DupCheck("new_x"))
	require.Nil(t, ctx.Registry.DupCheck("new_y"))
}

func Test_RuntimeReconfigInvalidPlanSyntax(t *testing.T) {
	ctx := devctx.New(newRunningProgram(), nil)
	ops := New(ctx, newTestMetrics(), nil)

	result := ops.RuntimeReconfig(context.Background(), "", "bogus_verb a b c")
	assert.Equal(t, graph.InvalidCommandError, result.Code)
	assert.Equal(t, 0, result.AppliedCount)
}

func Test_ApplyPlanOnlySkipsStaging(t *testing.T) {
	ctx := devctx.New(newRunningProgram(), nil)
	ops := New(ctx, newTestMetrics(), nil)

	result := ops.ApplyPlanOnly(context.Background(), "trigger 1 -1")
	assert.Equal(t, graph.Success, result.Code)
	assert.Equal(t, 1, result.AppliedCount)
}
