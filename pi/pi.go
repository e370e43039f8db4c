// Package pi is the control-plane façade of spec.md §6: a thin,
// in-process surface of one Go function per primitive, mirroring
// PI/src/pi_runtime_reconfig_imp.cpp's _pi_runtime_reconfig_* entry
// points (original_source/) without carrying over its C ABI, session
// pointer arithmetic, or RPC framing — both explicitly out of scope
// per spec.md §1.
//
// Grounded on the teacher's gateway-service shape
// (controlplane/internal/gateway/pipeline_service.go): validate
// inputs, delegate to the owned resource, translate the result to a
// stable status. Here the "owned resource" is a devctx.Manager instead
// of a cgo-attached shared-memory agent, and translation runs through
// graph.ErrorCode instead of protobuf status codes.
package pi

import (
	"context"

	"github.com/google/uuid"

	"github.com/dyc2021/runtime-programmable-switch/devctx"
	"github.com/dyc2021/runtime-programmable-switch/graph"
	"github.com/dyc2021/runtime-programmable-switch/internal/metrics"
	"github.com/dyc2021/runtime-programmable-switch/reconfig"
	"github.com/dyc2021/runtime-programmable-switch/snapshot"

	"go.uber.org/zap"
)

var loadProgram devctx.ProgramLoader = snapshot.Load

// SessionHandle is the opaque per-connection handle spec.md §6
// describes: "Each function takes an opaque session handle and a
// device-target descriptor." Sessions carry no state of their own in
// this façade — devctx.Manager is keyed purely by DeviceTarget — but
// the handle exists so a caller can be issued one without being shown
// any internal identifier, matching the original's pi_session_handle_t
// opacity.
type SessionHandle uuid.UUID

func NewSession() SessionHandle {
	return SessionHandle(uuid.New())
}

func (s SessionHandle) String() string {
	return uuid.UUID(s).String()
}

// DeviceTarget is an alias for devctx.Target: the façade does not
// define its own device-target type, since devctx.Manager is already
// keyed on exactly this shape.
type DeviceTarget = devctx.Target

// Status mirrors graph.ErrorCode at the façade boundary. It is its own
// type (rather than a direct re-export) so that callers outside this
// module's Go packages — a future cgo or gRPC binding — have a status
// type that does not leak the internal graph package's import path.
type Status int32

const (
	StatusSuccess             Status = 0
	StatusOpenJSONFileFail    Status = 1
	StatusOpenPlanFileFail    Status = 2
	StatusOpenOutputFileFail  Status = 3
	StatusOpenJSONStreamFail  Status = 4
	StatusP4ObjectsInitFail   Status = 5
	StatusPrefixError         Status = 6
	StatusDupCheckError       Status = 7
	StatusUnfoundIDError      Status = 8
	StatusInvalidCommandError Status = 9
)

func (s Status) String() string {
	return graph.ErrorCode(s).String()
}

// convertErrorCode maps the internal taxonomy onto the façade's own
// Status type. The two enumerations are numerically identical today;
// the indirection exists so a future ABI-stable PI binding can renumber
// Status without touching graph.ErrorCode, the same separation
// pi_runtime_reconfig_imp.cpp's convert_error_code draws between
// bm::MatchErrorCode and the ABI's pi_status_t.
func convertErrorCode(code graph.ErrorCode) Status {
	return Status(code)
}

// Runtime is the façade's single entry point: one Runtime per process,
// wrapping a devctx.Manager plus the metrics/logging every session's
// commands report through.
type Runtime struct {
	manager *devctx.Manager
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
}

func NewRuntime(manager *devctx.Manager, m *metrics.Metrics, log *zap.SugaredLogger) *Runtime {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runtime{manager: manager, metrics: m, log: log}
}

// opsFor resolves target to its devctx.Context and wraps it in a
// reconfig.Ops, the same attach step pipeline_service.go performs
// against its cgo agent before every mutating RPC.
func (rt *Runtime) opsFor(target DeviceTarget) *reconfig.Ops {
	ctx := rt.manager.Get(target)
	return reconfig.New(ctx, rt.metrics, rt.log)
}

// InitP4ObjectsNew mirrors _pi_runtime_reconfig_init_p4objects_new.
func (rt *Runtime) InitP4ObjectsNew(_ SessionHandle, target DeviceTarget, jsonText string) Status {
	ctx := rt.manager.Get(target)
	err := ctx.InitP4ObjectsNew(loadProgram, jsonText)
	return convertErrorCode(graph.CodeOf(err))
}

// InsertTable mirrors _pi_runtime_reconfig_insert_match_table.
func (rt *Runtime) InsertTable(_ SessionHandle, target DeviceTarget, pipeline, id string) Status {
	err := rt.opsFor(target).InsertTable(pipeline, id)
	return convertErrorCode(graph.CodeOf(err))
}

// ChangeTable mirrors _pi_runtime_reconfig_change_table_next.
func (rt *Runtime) ChangeTable(_ SessionHandle, target DeviceTarget, pipeline, id0, edge, id1 string) Status {
	err := rt.opsFor(target).ChangeTable(pipeline, id0, edge, id1)
	return convertErrorCode(graph.CodeOf(err))
}

// DeleteTable mirrors _pi_runtime_reconfig_delete_table.
func (rt *Runtime) DeleteTable(ctx context.Context, _ SessionHandle, target DeviceTarget, pipeline, id0 string) Status {
	err := rt.opsFor(target).DeleteTable(ctx, pipeline, id0)
	return convertErrorCode(graph.CodeOf(err))
}

// InsertConditional mirrors _pi_runtime_reconfig_insert_conditional.
func (rt *Runtime) InsertConditional(_ SessionHandle, target DeviceTarget, pipeline, id string) Status {
	err := rt.opsFor(target).InsertConditional(pipeline, id)
	return convertErrorCode(graph.CodeOf(err))
}

// ChangeConditional mirrors _pi_runtime_reconfig_change_conditional_next.
func (rt *Runtime) ChangeConditional(_ SessionHandle, target DeviceTarget, pipeline, id0, branch, id1 string) Status {
	err := rt.opsFor(target).ChangeConditional(pipeline, id0, branch, id1)
	return convertErrorCode(graph.CodeOf(err))
}

// DeleteConditional mirrors _pi_runtime_reconfig_delete_conditional.
func (rt *Runtime) DeleteConditional(ctx context.Context, _ SessionHandle, target DeviceTarget, pipeline, id0 string) Status {
	err := rt.opsFor(target).DeleteConditional(ctx, pipeline, id0)
	return convertErrorCode(graph.CodeOf(err))
}

// InsertFlex mirrors _pi_runtime_reconfig_insert_flex.
func (rt *Runtime) InsertFlex(_ SessionHandle, target DeviceTarget, pipeline, id, trueID, falseID string) Status {
	err := rt.opsFor(target).InsertFlex(pipeline, id, trueID, falseID)
	return convertErrorCode(graph.CodeOf(err))
}

// ChangeFlex mirrors _pi_runtime_reconfig_change_flex_next.
func (rt *Runtime) ChangeFlex(_ SessionHandle, target DeviceTarget, pipeline, id0, branch, id1 string) Status {
	err := rt.opsFor(target).ChangeFlex(pipeline, id0, branch, id1)
	return convertErrorCode(graph.CodeOf(err))
}

// DeleteFlex mirrors _pi_runtime_reconfig_delete_flex.
func (rt *Runtime) DeleteFlex(ctx context.Context, _ SessionHandle, target DeviceTarget, pipeline, id0 string) Status {
	err := rt.opsFor(target).DeleteFlex(ctx, pipeline, id0)
	return convertErrorCode(graph.CodeOf(err))
}

// ChangeInit mirrors _pi_runtime_reconfig_change_pipeline_init.
func (rt *Runtime) ChangeInit(ctx context.Context, _ SessionHandle, target DeviceTarget, pipeline, id string) Status {
	err := rt.opsFor(target).ChangeInit(ctx, pipeline, id)
	return convertErrorCode(graph.CodeOf(err))
}

// InsertRegisterArray mirrors _pi_runtime_reconfig_insert_register_array.
func (rt *Runtime) InsertRegisterArray(_ SessionHandle, target DeviceTarget, id string, size, bitwidth uint32) Status {
	err := rt.opsFor(target).InsertRegisterArray(id, size, bitwidth)
	return convertErrorCode(graph.CodeOf(err))
}

// ChangeRegisterArray mirrors _pi_runtime_reconfig_change_register_array.
func (rt *Runtime) ChangeRegisterArray(_ SessionHandle, target DeviceTarget, id string, changeType graph.ChangeType, value uint32) Status {
	err := rt.opsFor(target).ChangeRegisterArray(id, changeType, value)
	return convertErrorCode(graph.CodeOf(err))
}

// DeleteRegisterArray mirrors _pi_runtime_reconfig_delete_register_array.
func (rt *Runtime) DeleteRegisterArray(_ SessionHandle, target DeviceTarget, id string) Status {
	err := rt.opsFor(target).DeleteRegisterArray(id)
	return convertErrorCode(graph.CodeOf(err))
}

// Trigger mirrors _pi_runtime_reconfig_trigger.
func (rt *Runtime) Trigger(_ SessionHandle, target DeviceTarget, armed bool, triggerNumber int) Status {
	err := rt.opsFor(target).Trigger(armed, triggerNumber)
	return convertErrorCode(graph.CodeOf(err))
}

// RuntimeReconfig mirrors the batch entry point _pi_runtime_reconfig,
// returning the snapshot text alongside the status so a caller can
// persist it without a second round trip.
func (rt *Runtime) RuntimeReconfig(ctx context.Context, _ SessionHandle, target DeviceTarget, jsonText, planText string) (Status, string, int) {
	result := rt.opsFor(target).RuntimeReconfig(ctx, jsonText, planText)
	return convertErrorCode(result.Code), result.Snapshot, result.AppliedCount
}
