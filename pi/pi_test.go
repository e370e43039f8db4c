package pi

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyc2021/runtime-programmable-switch/devctx"
	"github.com/dyc2021/runtime-programmable-switch/graph"
	"github.com/dyc2021/runtime-programmable-switch/internal/metrics"
)

func newTestRuntime() *Runtime {
	manager := devctx.NewManager(nil)
	m := metrics.New(prometheus.NewRegistry())
	return NewRuntime(manager, m, nil)
}

func Test_SessionHandleIsOpaque(t *testing.T) {
	a := NewSession()
	b := NewSession()
	assert.NotEqual(t, a.String(), b.String())
}

func Test_ConvertErrorCodeIsNumericallyStable(t *testing.T) {
	assert.Equal(t, StatusSuccess, convertErrorCode(0))
	assert.Equal(t, StatusUnfoundIDError, convertErrorCode(8))
}

func Test_RuntimeInsertRegisterArrayThroughFacade(t *testing.T) {
	rt := newTestRuntime()
	session := NewSession()
	target := DeviceTarget{DeviceID: 1, PipeID: 0}

	status := rt.InsertRegisterArray(session, target, "new_counters", 1024, 32)
	assert.Equal(t, StatusSuccess, status)

	status = rt.InsertRegisterArray(session, target, "new_counters", 1024, 32)
	assert.Equal(t, StatusDupCheckError, status)
}

func Test_RuntimeRuntimeReconfigBatch(t *testing.T) {
	rt := newTestRuntime()
	session := NewSession()
	target := DeviceTarget{DeviceID: 1}

	status, snapshotText, applied := rt.RuntimeReconfig(context.Background(), session, target, "", "trigger 1 -1")
	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, 1, applied)
	assert.NotEmpty(t, snapshotText)
}

func Test_RuntimeDeleteTableQuiesces(t *testing.T) {
	rt := newTestRuntime()
	session := NewSession()
	target := DeviceTarget{DeviceID: 1}

	ctx := rt.manager.Get(target)
	pipe := ctx.Running.Pipeline("ingress")
	pipe.Nodes["keep"] = graph.NewTable("keep")
	pipe.Nodes["gone"] = graph.NewTable("gone")
	pipe.Init = "keep"

	status := rt.DeleteTable(context.Background(), session, target, "ingress", "old_gone")
	require.Equal(t, StatusSuccess, status)

	_, exists := pipe.Nodes["gone"]
	assert.False(t, exists)
}
