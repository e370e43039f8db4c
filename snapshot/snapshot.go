// Package snapshot (de)serializes a graph.Program to and from the JSON
// dialect referenced by spec.md §6: "byte-identical to what the
// initial program loader consumes." That loader (the P4Objects
// builder) is out of scope for this core (spec.md §1); this package
// implements the portion of the dialect the reconfiguration core
// itself needs to read (init_p4objects_new) and write (batch output
// snapshot), using encoding/json — no example repo in the pack imports
// a third-party document-JSON library, so stdlib is the grounded
// choice here (see DESIGN.md's snapshot/ entry).
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dyc2021/runtime-programmable-switch/graph"
)

// document is the on-the-wire shape of a Program.
type document struct {
	Pipelines []pipelineDoc `json:"pipelines"`
	Registers []registerDoc `json:"register_arrays"`
}

type pipelineDoc struct {
	Name  string    `json:"name"`
	Init  string    `json:"init"`
	Nodes []nodeDoc `json:"nodes"`
}

type nodeDoc struct {
	Name string `json:"name"`
	Kind string `json:"kind"` // "table" | "conditional" | "flex"

	// Table fields.
	ActionNext  map[string]string `json:"action_next,omitempty"`
	DefaultNext string            `json:"default_next,omitempty"`

	// Conditional / Flex fields.
	TrueNext  string `json:"true_next,omitempty"`
	FalseNext string `json:"false_next,omitempty"`

	// Flex-only fields.
	Armed      bool `json:"armed,omitempty"`
	MountPoint int  `json:"mount_point,omitempty"`
}

type registerDoc struct {
	Name     string `json:"name"`
	Size     uint32 `json:"size"`
	BitWidth uint32 `json:"bitwidth"`
}

// Load parses r into a fresh *graph.Program. Any malformed document
// yields a plain error; devctx.InitP4ObjectsNew is responsible for
// translating that into graph.P4ObjectsInitFail.
func Load(r io.Reader) (*graph.Program, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode program JSON: %w", err)
	}

	program := graph.NewProgram()

	for _, pd := range doc.Pipelines {
		pipe := program.Pipeline(pd.Name)
		pipe.Init = pd.Init
		for _, nd := range pd.Nodes {
			node, err := decodeNode(nd)
			if err != nil {
				return nil, fmt.Errorf("pipeline %q: %w", pd.Name, err)
			}
			pipe.Nodes[node.Name] = node
		}
	}

	for _, rd := range doc.Registers {
		program.Registers[rd.Name] = &graph.RegisterArray{
			Name:     rd.Name,
			Size:     rd.Size,
			BitWidth: rd.BitWidth,
		}
	}

	return program, nil
}

func decodeNode(nd nodeDoc) (*graph.Node, error) {
	switch nd.Kind {
	case "table":
		node := graph.NewTable(nd.Name)
		node.DefaultNext = nd.DefaultNext
		for action, next := range nd.ActionNext {
			node.ActionNext[action] = next
		}
		return node, nil
	case "conditional":
		node := graph.NewConditional(nd.Name)
		node.TrueNext = nd.TrueNext
		node.FalseNext = nd.FalseNext
		return node, nil
	case "flex":
		node := graph.NewFlex(nd.Name, nd.TrueNext, nd.FalseNext, nd.MountPoint)
		node.Armed = nd.Armed
		return node, nil
	default:
		return nil, fmt.Errorf("node %q has unknown kind %q", nd.Name, nd.Kind)
	}
}

// Save serializes program to w in the same dialect Load consumes —
// used for the batch entry point's <output>.new persistence step
// (spec.md §6).
func Save(w io.Writer, program *graph.Program) error {
	doc := document{}

	for _, pipe := range program.Pipelines {
		pd := pipelineDoc{Name: pipe.Name, Init: pipe.Init}
		for _, node := range pipe.Nodes {
			pd.Nodes = append(pd.Nodes, encodeNode(node))
		}
		doc.Pipelines = append(doc.Pipelines, pd)
	}

	for _, reg := range program.Registers {
		doc.Registers = append(doc.Registers, registerDoc{
			Name:     reg.Name,
			Size:     reg.Size,
			BitWidth: reg.BitWidth,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode program JSON: %w", err)
	}
	return nil
}

func encodeNode(node *graph.Node) nodeDoc {
	nd := nodeDoc{Name: node.Name, Kind: node.Kind.String()}
	switch node.Kind {
	case graph.KindTable:
		nd.ActionNext = node.ActionNext
		nd.DefaultNext = node.DefaultNext
	case graph.KindConditional:
		nd.TrueNext = node.TrueNext
		nd.FalseNext = node.FalseNext
	case graph.KindFlex:
		nd.TrueNext = node.TrueNext
		nd.FalseNext = node.FalseNext
		nd.Armed = node.Armed
		nd.MountPoint = node.MountPoint
	}
	return nd
}
