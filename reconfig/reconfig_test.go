package reconfig

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyc2021/runtime-programmable-switch/devctx"
	"github.com/dyc2021/runtime-programmable-switch/graph"
	"github.com/dyc2021/runtime-programmable-switch/internal/metrics"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func loaderWithTable(actualName string) devctx.ProgramLoader {
	return func(_ io.Reader) (*graph.Program, error) {
		staged := graph.NewProgram()
		staged.Pipeline("ingress").Nodes[actualName] = graph.NewTable(actualName)
		return staged, nil
	}
}

func Test_InsertTableThenChangeTable(t *testing.T) {
	running := graph.NewProgram()
	running.Pipeline("ingress").Init = "start"
	running.Pipeline("ingress").Nodes["start"] = graph.NewTable("start")

	ctx := devctx.New(running, nil)
	ops := New(ctx, newTestMetrics(), nil)

	stageErr := ctx.InitP4ObjectsNew(loaderWithTable("x"), "new_x")
	require.Nil(t, stageErr)

	err := ops.InsertTable("ingress", "new_x")
	require.Nil(t, err)

	err = ops.ChangeTable("ingress", "old_start", "__default__", "new_x")
	require.Nil(t, err)

	assert.Equal(t, "x", running.Pipeline("ingress").Nodes["start"].DefaultNext)
}

func Test_InsertTableDuplicateRejected(t *testing.T) {
	ctx := devctx.New(graph.NewProgram(), nil)
	ops := New(ctx, newTestMetrics(), nil)

	require.Nil(t, ctx.InitP4ObjectsNew(loaderWithTable("x"), "new_x"))
	require.Nil(t, ops.InsertTable("ingress", "new_x"))

	err := ops.InsertTable("ingress", "new_x")
	require.NotNil(t, err)
	assert.Equal(t, graph.DupCheckError, err.Code)
}

func Test_InsertTableBadPrefixRejected(t *testing.T) {
	ctx := devctx.New(graph.NewProgram(), nil)
	ops := New(ctx, newTestMetrics(), nil)
	require.Nil(t, ctx.InitP4ObjectsNew(loaderWithTable("new_x"), "new_x"))

	err := ops.InsertTable("ingress", "old_x")
	require.NotNil(t, err)
	assert.Equal(t, graph.PrefixError, err.Code)
}

func Test_InsertTableWithoutStagedProgramRejected(t *testing.T) {
	ctx := devctx.New(graph.NewProgram(), nil)
	ops := New(ctx, newTestMetrics(), nil)

	err := ops.InsertTable("ingress", "new_x")
	require.NotNil(t, err)
	assert.Equal(t, graph.InvalidCommandError, err.Code)
}

func Test_FlexCutover(t *testing.T) {
	running := graph.NewProgram()
	pipe := running.Pipeline("ingress")
	pipe.Nodes["pathA"] = graph.NewTable("pathA")
	pipe.Nodes["pathB"] = graph.NewTable("pathB")
	pipe.Init = "pathA"

	ctx := devctx.New(running, nil)
	ops := New(ctx, newTestMetrics(), nil)

	err := ops.InsertFlex("ingress", "flx_cutover", "old_pathA", "old_pathB")
	require.Nil(t, err)

	node := pipe.Nodes["cutover"]
	require.NotNil(t, node)
	assert.Equal(t, "pathA", node.TrueNext)
	assert.Equal(t, "pathB", node.FalseNext)
	assert.False(t, node.Armed)

	require.Nil(t, ops.Trigger(true, -1))
	assert.True(t, node.Armed)
}

func Test_FlexCutoverUnresolvableBranchRejected(t *testing.T) {
	ctx := devctx.New(graph.NewProgram(), nil)
	ops := New(ctx, newTestMetrics(), nil)

	err := ops.InsertFlex("ingress", "flx_cutover", "old_missing", "null")
	require.NotNil(t, err)
	assert.Equal(t, graph.UnfoundIDError, err.Code)
}

func Test_DeleteTableQuiescesFirst(t *testing.T) {
	running := graph.NewProgram()
	pipe := running.Pipeline("ingress")
	pipe.Nodes["other"] = graph.NewTable("other")
	pipe.Nodes["doomed"] = graph.NewTable("doomed")
	pipe.Init = "other"

	ctx := devctx.New(running, nil)
	ops := New(ctx, newTestMetrics(), nil)

	err := ops.DeleteTable(context.Background(), "ingress", "old_doomed")
	require.Nil(t, err)

	_, exists := pipe.Nodes["doomed"]
	assert.False(t, exists)
}

func Test_RegisterArrayLifecycleViaOps(t *testing.T) {
	ctx := devctx.New(graph.NewProgram(), nil)
	ops := New(ctx, newTestMetrics(), nil)

	require.Nil(t, ops.InsertRegisterArray("new_counters", 1024, 32))
	require.Nil(t, ops.ChangeRegisterArray("old_counters", graph.ResizeRegisterArray, 2048))
	require.Nil(t, ops.DeleteRegisterArray("old_counters"))

	_, exists := ctx.Running.Registers["counters"]
	assert.False(t, exists)
}
