package devctx

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dyc2021/runtime-programmable-switch/graph"
)

// Target identifies a (device, pipe) pair — the granularity at which
// the original PI layer scopes a session, per spec.md §6 ("Each
// function takes an opaque session handle and a device-target
// descriptor (device id + pipe id)").
type Target struct {
	DeviceID uint64
	PipeID   uint32
}

func (t Target) String() string {
	return fmt.Sprintf("dev=%d/pipe=%d", t.DeviceID, t.PipeID)
}

// Manager owns one Context per Target. Keyed-map-behind-a-mutex shape
// is grounded on controlplane/internal/gateway/registry.go's
// BackendRegistry (teacher), which keys per-service gRPC backends the
// same way; here the key is a device target instead of a gRPC service
// name.
type Manager struct {
	mu       sync.RWMutex
	contexts map[Target]*Context
	log      *zap.SugaredLogger
}

func NewManager(log *zap.SugaredLogger) *Manager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Manager{contexts: map[Target]*Context{}, log: log}
}

// Get returns the Context for target, creating an IDLE one around an
// empty running program if this is the first time target is seen.
func (m *Manager) Get(target Target) *Context {
	m.mu.RLock()
	ctx, ok := m.contexts[target]
	m.mu.RUnlock()
	if ok {
		return ctx
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx, ok := m.contexts[target]; ok {
		return ctx
	}

	ctx = New(graph.NewProgram(), m.log.With(zap.Stringer("target", target)))
	m.contexts[target] = ctx
	m.log.Infow("created reconfiguration context", zap.Stringer("target", target))
	return ctx
}

// Bind installs an already-loaded running program for target,
// overwriting whatever context previously existed — used at process
// startup once the (out-of-scope) P4Objects builder has produced the
// initial running graph.
func (m *Manager) Bind(target Target, running *graph.Program) *Context {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx := New(running, m.log.With(zap.Stringer("target", target)))
	m.contexts[target] = ctx
	return ctx
}
