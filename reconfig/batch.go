package reconfig

import (
	"context"

	"go.uber.org/zap"

	"github.com/dyc2021/runtime-programmable-switch/graph"
	"github.com/dyc2021/runtime-programmable-switch/planfile"
	"github.com/dyc2021/runtime-programmable-switch/snapshot"
)

// BatchResult is the outcome of one RuntimeReconfig call, matching
// spec.md §4.4's batch entry point signature.
type BatchResult struct {
	Code         graph.ErrorCode
	Snapshot     string // JSON text of running after the batch, per spec.md §6
	AppliedCount int
	FailedLine   int // 1-based plan-file line of the first failing command, 0 if none failed
}

// RuntimeReconfig implements spec.md §4.4's batch entry point: stage
// jsonText via InitP4ObjectsNew, then apply commands from planText in
// order. On the first command that fails, the batch aborts and
// returns that command's error code — commands applied before it are
// not rolled back, per spec.md §4.4/§9's documented non-rollback
// policy.
func (o *Ops) RuntimeReconfig(ctx context.Context, jsonText, planText string) BatchResult {
	if jsonText != "" {
		if err := o.Ctx.InitP4ObjectsNew(snapshot.Load, jsonText); err != nil {
			return BatchResult{Code: err.Code}
		}
	}

	commands, perr := planfile.ParseString(planText)
	if perr != nil {
		return BatchResult{Code: graph.InvalidCommandError}
	}

	result := BatchResult{Code: graph.Success}

	for _, cmd := range commands {
		if err := o.dispatch(ctx, cmd); err != nil {
			result.FailedLine = cmd.Line
			result.Code = err.Code
			o.Log.Warnw("plan aborted on failing command",
				zap.Int("line", cmd.Line),
				zap.String("verb", string(cmd.Verb)),
				zap.String("code", err.Code.String()),
			)
			break
		}
		result.AppliedCount++
	}

	text, merr := o.Ctx.MarshalRunning(snapshot.Save)
	if merr != nil {
		return BatchResult{Code: graph.OpenOutputFileFail, FailedLine: result.FailedLine}
	}
	result.Snapshot = text
	return result
}

// dispatch type-converts cmd's string arguments and invokes the
// matching Ops method. The pipeline name is always the first argument
// of every verb that needs one, per spec.md §4.4's command table.
func (o *Ops) dispatch(ctx context.Context, cmd planfile.Command) *graph.ReconfigError {
	switch cmd.Verb {
	case planfile.VerbTableInit:
		return o.InsertTable(cmd.Arg(0), cmd.Arg(1))
	case planfile.VerbTableChange:
		return o.ChangeTable(cmd.Arg(0), cmd.Arg(1), cmd.Arg(2), cmd.Arg(3))
	case planfile.VerbTableDelete:
		return o.DeleteTable(ctx, cmd.Arg(0), cmd.Arg(1))

	case planfile.VerbCondInit:
		return o.InsertConditional(cmd.Arg(0), cmd.Arg(1))
	case planfile.VerbCondChange:
		return o.ChangeConditional(cmd.Arg(0), cmd.Arg(1), cmd.Arg(2), cmd.Arg(3))
	case planfile.VerbCondDelete:
		return o.DeleteConditional(ctx, cmd.Arg(0), cmd.Arg(1))

	case planfile.VerbFlexInit:
		return o.InsertFlex(cmd.Arg(0), cmd.Arg(1), cmd.Arg(2), cmd.Arg(3))
	case planfile.VerbFlexChange:
		return o.ChangeFlex(cmd.Arg(0), cmd.Arg(1), cmd.Arg(2), cmd.Arg(3))
	case planfile.VerbFlexDelete:
		return o.DeleteFlex(ctx, cmd.Arg(0), cmd.Arg(1))

	case planfile.VerbRegInit:
		size, err := cmd.ArgUint32(1)
		if err != nil {
			return graph.NewError(graph.InvalidCommandError, "%v", err)
		}
		bitwidth, err := cmd.ArgUint32(2)
		if err != nil {
			return graph.NewError(graph.InvalidCommandError, "%v", err)
		}
		return o.InsertRegisterArray(cmd.Arg(0), size, bitwidth)
	case planfile.VerbRegChange:
		changeType, err := cmd.ArgInt(1)
		if err != nil {
			return graph.NewError(graph.InvalidCommandError, "%v", err)
		}
		value, err := cmd.ArgUint32(2)
		if err != nil {
			return graph.NewError(graph.InvalidCommandError, "%v", err)
		}
		return o.ChangeRegisterArray(cmd.Arg(0), graph.ChangeType(changeType), value)
	case planfile.VerbRegDelete:
		return o.DeleteRegisterArray(cmd.Arg(0))

	case planfile.VerbTrigger:
		armed, err := cmd.ArgBool(0)
		if err != nil {
			return graph.NewError(graph.InvalidCommandError, "%v", err)
		}
		trigger, err := cmd.ArgInt(1)
		if err != nil {
			trigger = -1
		}
		return o.Trigger(armed, trigger)

	case planfile.VerbInitChange:
		return o.ChangeInit(ctx, cmd.Arg(0), cmd.Arg(1))

	default:
		return graph.NewError(graph.InvalidCommandError, "unhandled verb %q", cmd.Verb)
	}
}

// ApplyPlanOnly runs a plan against the already-staged/running context
// without re-initializing staged from JSON first.
func (o *Ops) ApplyPlanOnly(ctx context.Context, planText string) BatchResult {
	return o.RuntimeReconfig(ctx, "", planText)
}
