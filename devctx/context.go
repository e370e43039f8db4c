// Package devctx implements the Dual-Graph Holder of spec.md §4.3: per
// (device, pipe) ownership of the running and staged pipeline graphs,
// the name registry, and the reconfiguration state machine of
// spec.md §4.5.
//
// Shape is grounded on controlplane/internal/gateway.Gateway (teacher):
// one type owning shared mutable state plus a registry plus lifecycle,
// built with functional options and zap logging.
package devctx

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dyc2021/runtime-programmable-switch/graph"
	"github.com/dyc2021/runtime-programmable-switch/guard"
	"github.com/dyc2021/runtime-programmable-switch/registry"
)

// State is the per-context reconfiguration state machine of spec.md
// §4.5.
type State int

const (
	StateIdle State = iota
	StateStaged
)

func (s State) String() string {
	if s == StateStaged {
		return "STAGED"
	}
	return "IDLE"
}

// Context exclusively owns one device/pipe's running graph, staged
// graph, and name registry, per spec.md §3's ownership rules.
type Context struct {
	mu sync.Mutex // guards state + swapping Running/Staged pointers

	Running *graph.Program
	Staged  *graph.Program

	Registry *registry.Registry
	Guard    *guard.Guard

	state State
	log   *zap.SugaredLogger
}

// New creates a Context around an already-loaded running program (the
// program loaded at startup by the out-of-scope P4Objects builder is
// handed in here as running).
func New(running *graph.Program, log *zap.SugaredLogger) *Context {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Context{
		Running:  running,
		Registry: registry.New(),
		Guard:    guard.New(),
		state:    StateIdle,
		log:      log,
	}
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ProgramLoader parses an io.Reader into a *graph.Program. It is
// satisfied by snapshot.Load; devctx takes it as a function value
// instead of importing the snapshot package, so each caller chooses
// the loader (the tests pass in-memory fakes).
type ProgramLoader func(io.Reader) (*graph.Program, error)

// ProgramSaver serializes a *graph.Program; satisfied by snapshot.Save.
type ProgramSaver func(io.Writer, *graph.Program) error

// InitP4ObjectsNew parses jsonText into a fresh staged program, per
// spec.md §4.3/§4.4. On any failure, Staged is left untouched — the
// teacher's own pattern of "mutate a transient resource, surface the
// error, leave permanent state alone" (gateway/pipeline_service.go)
// applies here too.
func (c *Context) InitP4ObjectsNew(load ProgramLoader, jsonText string) *graph.ReconfigError {
	if jsonText == "" {
		return graph.NewError(graph.OpenJSONStreamFail, "json text is empty")
	}

	program, err := load(strings.NewReader(jsonText))
	if err != nil {
		return graph.NewError(graph.P4ObjectsInitFail, "%v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Staged = program
	c.Registry.Clear()
	c.state = StateStaged

	c.log.Infow("staged new program",
		zap.Int("pipelines", len(program.Pipelines)),
		zap.Int("registers", len(program.Registers)),
	)

	return nil
}

// MarshalRunning serializes the running program back to JSON text,
// used by the batch entry point to produce the snapshot text it
// returns; writing that text to a file is left to the caller.
func (c *Context) MarshalRunning(save ProgramSaver) (string, error) {
	c.mu.Lock()
	program := c.Running
	c.mu.Unlock()

	var buf bytes.Buffer
	if err := save(&buf, program); err != nil {
		return "", fmt.Errorf("failed to marshal running program: %w", err)
	}
	return buf.String(), nil
}
