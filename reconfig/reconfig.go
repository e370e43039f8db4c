// Package reconfig implements the Mutation Operations of spec.md §4.4:
// one function per controller command, each a pure function of
// (context, args) that either succeeds atomically or leaves running,
// staged, and the registry exactly as they were.
//
// Shape grounded on controlplane/internal/gateway/pipeline_service.go
// and function_service.go (teacher): attach a transient resource,
// validate, mutate, log, detach — restructured around an in-process
// devctx.Context instead of a cgo-attached agent.
package reconfig

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dyc2021/runtime-programmable-switch/devctx"
	"github.com/dyc2021/runtime-programmable-switch/graph"
	"github.com/dyc2021/runtime-programmable-switch/internal/metrics"
	"github.com/dyc2021/runtime-programmable-switch/registry"
)

// Ops binds a devctx.Context to the metrics/logging it reports
// through. One Ops exists per (device, pipe) — devctx.Manager hands
// out Contexts, and callers wrap each in an Ops before dispatching
// commands.
type Ops struct {
	Ctx     *devctx.Context
	Metrics *metrics.Metrics
	Log     *zap.SugaredLogger
}

func New(ctx *devctx.Context, m *metrics.Metrics, log *zap.SugaredLogger) *Ops {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Ops{Ctx: ctx, Metrics: m, Log: log}
}

// instrument wraps fn with the metrics/logging every command shares:
// a latency observation and a commands_total increment, labeled by the
// ErrorCode fn returns.
func (o *Ops) instrument(command string, fn func() *graph.ReconfigError) *graph.ReconfigError {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start).Seconds()

	code := graph.CodeOf(err)
	o.Metrics.Observe(command, code.String(), elapsed)

	if err != nil {
		o.Log.Debugw("reconfiguration command failed",
			zap.String("command", command),
			zap.String("code", code.String()),
			zap.String("detail", err.Detail),
		)
	} else {
		o.Log.Debugw("reconfiguration command applied", zap.String("command", command))
	}
	return err
}

// InsertTable implements insert_table: copies the table named by id's
// actual name from staged into running's pipeline, registering
// id -> actual name.
func (o *Ops) InsertTable(pipeline, id string) *graph.ReconfigError {
	return o.instrument("insert_table", func() *graph.ReconfigError {
		actual, perr := registry.RequireInsertPrefix(id, "new")
		if perr != nil {
			return perr
		}
		if derr := o.Ctx.Registry.DupCheck(id); derr != nil {
			return derr
		}
		if o.Ctx.Staged == nil {
			return graph.NewError(graph.InvalidCommandError, "no staged program: call init_p4objects_new first")
		}

		var insertErr *graph.ReconfigError
		merr := o.Ctx.Guard.Mutate(func() error {
			pipe := o.Ctx.Running.Pipeline(pipeline)
			stagedPipe := o.Ctx.Staged.Pipeline(pipeline)
			name, err := pipe.InsertMatchTable(stagedPipe, actual)
			if err != nil {
				insertErr = err
				return err
			}
			o.Ctx.Registry.Register(id, name)
			return nil
		})
		if merr != nil {
			return insertErr
		}
		return nil
	})
}

// ChangeTable implements change_table: rewires a single outgoing edge
// of a table.
func (o *Ops) ChangeTable(pipeline, id0, edge, id1 string) *graph.ReconfigError {
	return o.instrument("change_table", func() *graph.ReconfigError {
		names, rerr := o.Ctx.Registry.Resolve([]string{id0, id1}, 2)
		if rerr != nil {
			return rerr
		}

		var changeErr *graph.ReconfigError
		o.Ctx.Guard.Mutate(func() error {
			pipe := o.Ctx.Running.Pipeline(pipeline)
			if err := pipe.ChangeTableNext(names[0], edge, names[1]); err != nil {
				changeErr = err
				return err
			}
			return nil
		})
		return changeErr
	})
}

// DeleteTable implements delete_table. Deletion shape-changes the
// graph, so it quiesces the dataplane first per spec.md §5.
func (o *Ops) DeleteTable(ctx context.Context, pipeline, id0 string) *graph.ReconfigError {
	return o.instrument("delete_table", func() *graph.ReconfigError {
		name, rerr := o.Ctx.Registry.ResolveOne(id0)
		if rerr != nil {
			return rerr
		}

		var deleteErr *graph.ReconfigError
		qerr := o.Ctx.Guard.Quiesce(ctx, func() error {
			pipe := o.Ctx.Running.Pipeline(pipeline)
			if err := pipe.DeleteMatchTable(name); err != nil {
				deleteErr = err
				return err
			}
			return nil
		})
		if qerr != nil && deleteErr == nil {
			return graph.NewError(graph.InvalidCommandError, "%v", qerr)
		}
		return deleteErr
	})
}

// InsertConditional implements insert_conditional.
func (o *Ops) InsertConditional(pipeline, id string) *graph.ReconfigError {
	return o.instrument("insert_conditional", func() *graph.ReconfigError {
		actual, perr := registry.RequireInsertPrefix(id, "new")
		if perr != nil {
			return perr
		}
		if derr := o.Ctx.Registry.DupCheck(id); derr != nil {
			return derr
		}
		if o.Ctx.Staged == nil {
			return graph.NewError(graph.InvalidCommandError, "no staged program: call init_p4objects_new first")
		}

		var insertErr *graph.ReconfigError
		o.Ctx.Guard.Mutate(func() error {
			pipe := o.Ctx.Running.Pipeline(pipeline)
			stagedPipe := o.Ctx.Staged.Pipeline(pipeline)
			name, err := pipe.InsertConditional(stagedPipe, actual)
			if err != nil {
				insertErr = err
				return err
			}
			o.Ctx.Registry.Register(id, name)
			return nil
		})
		return insertErr
	})
}

// ChangeConditional implements change_conditional / change_flex —
// spec.md §4.1 has Flex share this exact implementation.
func (o *Ops) ChangeConditional(pipeline, id0, branch, id1 string) *graph.ReconfigError {
	return o.instrument("change_conditional", func() *graph.ReconfigError {
		names, rerr := o.Ctx.Registry.Resolve([]string{id0, id1}, 2)
		if rerr != nil {
			return rerr
		}

		var changeErr *graph.ReconfigError
		o.Ctx.Guard.Mutate(func() error {
			pipe := o.Ctx.Running.Pipeline(pipeline)
			if err := pipe.ChangeConditionalNext(names[0], branch, names[1]); err != nil {
				changeErr = err
				return err
			}
			return nil
		})
		return changeErr
	})
}

// ChangeFlex is an alias for ChangeConditional, kept as its own
// exported entry point so callers (the PI façade, the plan
// interpreter) can dispatch on the command name used in spec.md §4.4's
// table without the caller needing to know that Flex and Conditional
// share an implementation.
func (o *Ops) ChangeFlex(pipeline, id0, branch, id1 string) *graph.ReconfigError {
	return o.ChangeConditional(pipeline, id0, branch, id1)
}

// DeleteConditional implements delete_conditional.
func (o *Ops) DeleteConditional(ctx context.Context, pipeline, id0 string) *graph.ReconfigError {
	return o.instrument("delete_conditional", func() *graph.ReconfigError {
		name, rerr := o.Ctx.Registry.ResolveOne(id0)
		if rerr != nil {
			return rerr
		}

		var deleteErr *graph.ReconfigError
		qerr := o.Ctx.Guard.Quiesce(ctx, func() error {
			pipe := o.Ctx.Running.Pipeline(pipeline)
			if err := pipe.DeleteConditional(name); err != nil {
				deleteErr = err
				return err
			}
			return nil
		})
		if qerr != nil && deleteErr == nil {
			return graph.NewError(graph.InvalidCommandError, "%v", qerr)
		}
		return deleteErr
	})
}

// InsertFlex implements insert_flex: constructs a Flex node with both
// branches resolved at insertion time (spec.md §3 invariant 4).
func (o *Ops) InsertFlex(pipeline, id, trueID, falseID string) *graph.ReconfigError {
	return o.instrument("insert_flex", func() *graph.ReconfigError {
		actual, perr := registry.RequireInsertPrefix(id, "flx")
		if perr != nil {
			return perr
		}
		if derr := o.Ctx.Registry.DupCheck(id); derr != nil {
			return derr
		}

		names, rerr := o.Ctx.Registry.Resolve([]string{trueID, falseID}, 2)
		if rerr != nil {
			return rerr
		}

		mountPoint, merr := registry.ParseMountPoint(actual)
		if merr != nil {
			return merr
		}

		var insertErr *graph.ReconfigError
		o.Ctx.Guard.Mutate(func() error {
			pipe := o.Ctx.Running.Pipeline(pipeline)
			name, err := pipe.InsertFlex(actual, names[0], names[1], mountPoint)
			if err != nil {
				insertErr = err
				return err
			}
			o.Ctx.Registry.Register(id, name)
			return nil
		})
		return insertErr
	})
}

// DeleteFlex implements delete_flex.
func (o *Ops) DeleteFlex(ctx context.Context, pipeline, id0 string) *graph.ReconfigError {
	return o.instrument("delete_flex", func() *graph.ReconfigError {
		name, rerr := o.Ctx.Registry.ResolveOne(id0)
		if rerr != nil {
			return rerr
		}

		var deleteErr *graph.ReconfigError
		qerr := o.Ctx.Guard.Quiesce(ctx, func() error {
			pipe := o.Ctx.Running.Pipeline(pipeline)
			if err := pipe.DeleteFlex(name); err != nil {
				deleteErr = err
				return err
			}
			return nil
		})
		if qerr != nil && deleteErr == nil {
			return graph.NewError(graph.InvalidCommandError, "%v", qerr)
		}
		return deleteErr
	})
}

// ChangeInit implements change_init. Retargeting the init node can
// invalidate an in-flight traversal cursor, so it quiesces first, per
// spec.md §5.
func (o *Ops) ChangeInit(ctx context.Context, pipeline, id string) *graph.ReconfigError {
	return o.instrument("init_change", func() *graph.ReconfigError {
		name, rerr := o.Ctx.Registry.ResolveOne(id)
		if rerr != nil {
			return rerr
		}

		var changeErr *graph.ReconfigError
		qerr := o.Ctx.Guard.Quiesce(ctx, func() error {
			pipe := o.Ctx.Running.Pipeline(pipeline)
			if err := pipe.ChangeInitNode(name); err != nil {
				changeErr = err
				return err
			}
			return nil
		})
		if qerr != nil && changeErr == nil {
			return graph.NewError(graph.InvalidCommandError, "%v", qerr)
		}
		return changeErr
	})
}

// InsertRegisterArray implements insert_register_array.
func (o *Ops) InsertRegisterArray(id string, size, bitwidth uint32) *graph.ReconfigError {
	return o.instrument("reg_init", func() *graph.ReconfigError {
		actual, perr := registry.RequireInsertPrefix(id, "new")
		if perr != nil {
			return perr
		}
		if derr := o.Ctx.Registry.DupCheck(id); derr != nil {
			return derr
		}

		var insertErr *graph.ReconfigError
		o.Ctx.Guard.Mutate(func() error {
			name, err := o.Ctx.Running.InsertRegisterArray(actual, size, bitwidth)
			if err != nil {
				insertErr = err
				return err
			}
			o.Ctx.Registry.Register(id, name)
			reg := o.Ctx.Running.Registers[name]
			o.Log.Infow("inserted register array",
				zap.String("name", name),
				zap.Stringer("footprint", reg.Footprint()),
			)
			return nil
		})
		return insertErr
	})
}

// ChangeRegisterArray implements change_register_array.
func (o *Ops) ChangeRegisterArray(id string, changeType graph.ChangeType, value uint32) *graph.ReconfigError {
	return o.instrument("reg_change", func() *graph.ReconfigError {
		name, rerr := o.Ctx.Registry.ResolveOne(id)
		if rerr != nil {
			return rerr
		}

		var changeErr *graph.ReconfigError
		o.Ctx.Guard.Mutate(func() error {
			if err := o.Ctx.Running.ChangeRegisterArray(name, changeType, value); err != nil {
				changeErr = err
				return err
			}
			return nil
		})
		return changeErr
	})
}

// DeleteRegisterArray implements delete_register_array.
func (o *Ops) DeleteRegisterArray(id string) *graph.ReconfigError {
	return o.instrument("reg_delete", func() *graph.ReconfigError {
		name, rerr := o.Ctx.Registry.ResolveOne(id)
		if rerr != nil {
			return rerr
		}

		var deleteErr *graph.ReconfigError
		o.Ctx.Guard.Mutate(func() error {
			if err := o.Ctx.Running.DeleteRegisterArray(name); err != nil {
				deleteErr = err
				return err
			}
			return nil
		})
		return deleteErr
	})
}

// Trigger implements trigger: arms/disarms Flex nodes across every
// pipeline in running.
func (o *Ops) Trigger(armed bool, triggerNumber int) *graph.ReconfigError {
	return o.instrument("trigger", func() *graph.ReconfigError {
		o.Ctx.Guard.Mutate(func() error {
			for _, pipe := range o.Ctx.Running.Pipelines {
				pipe.FlexTrigger(armed, triggerNumber)
			}
			return nil
		})
		o.Log.Infow("flex trigger fired",
			zap.Bool("armed", armed),
			zap.Int("trigger_number", triggerNumber),
			zap.Ints("mount_points", o.Ctx.Running.AllFlexMountPoints()),
		)
		return nil
	})
}
