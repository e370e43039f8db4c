package graph

import "fmt"

// Pipeline is a named directed graph of Nodes traversed by each packet
// in a fixed phase (ingress/egress). Edges are labeled: "true_next" /
// "false_next" for conditionals and Flex, action-name (or
// "__default__") for tables.
type Pipeline struct {
	Name  string
	Init  string
	Nodes map[string]*Node
}

// NewPipeline creates an empty pipeline with no init node.
func NewPipeline(name string) *Pipeline {
	return &Pipeline{Name: name, Nodes: map[string]*Node{}}
}

// clone deep-copies the pipeline for Program.Clone, so the copy does
// not alias the original's nodes.
func (p *Pipeline) clone() *Pipeline {
	cp := NewPipeline(p.Name)
	cp.Init = p.Init
	for name, node := range p.Nodes {
		cp.Nodes[name] = node.clone()
	}
	return cp
}

func (p *Pipeline) node(name string) (*Node, bool) {
	if name == EmptyEdge {
		return nil, false
	}
	n, ok := p.Nodes[name]
	return n, ok
}

// insertDetached copies src (normally pulled from a staged pipeline)
// into p under its own name. The copy is detached: nothing in p yet
// points to it. Returns the name under which it is now stored.
func (p *Pipeline) insertDetached(src *Node) string {
	cp := src.clone()
	p.Nodes[cp.Name] = cp
	return cp.Name
}

// InsertMatchTable deep-copies the table named actualName out of
// staged into p, rebinding none of its edges (they already refer to
// staged names, which become the table's own edges verbatim — per
// spec.md §4.1 the copy keeps "the names they had in staged").
func (p *Pipeline) InsertMatchTable(staged *Pipeline, actualName string) (string, *ReconfigError) {
	src, ok := staged.node(actualName)
	if !ok || src.Kind != KindTable {
		return "", NewError(InvalidCommandError, "table %q not found in staged program", actualName)
	}
	return p.insertDetached(src), nil
}

// InsertConditional is the conditional-node analogue of InsertMatchTable.
func (p *Pipeline) InsertConditional(staged *Pipeline, actualName string) (string, *ReconfigError) {
	src, ok := staged.node(actualName)
	if !ok || src.Kind != KindConditional {
		return "", NewError(InvalidCommandError, "conditional %q not found in staged program", actualName)
	}
	return p.insertDetached(src), nil
}

// InsertFlex freshly constructs a Flex node with the given edges
// already resolved to concrete running-graph names. mountPoint < 0
// means anonymous.
func (p *Pipeline) InsertFlex(name, trueNext, falseNext string, mountPoint int) (string, *ReconfigError) {
	if trueNext != EmptyEdge {
		if _, ok := p.node(trueNext); !ok {
			return "", NewError(UnfoundIDError, "flex true_next %q does not exist in running graph", trueNext)
		}
	}
	if falseNext != EmptyEdge {
		if _, ok := p.node(falseNext); !ok {
			return "", NewError(UnfoundIDError, "flex false_next %q does not exist in running graph", falseNext)
		}
	}
	node := NewFlex(name, trueNext, falseNext, mountPoint)
	p.Nodes[name] = node
	return name, nil
}

// ChangeTableNext rebinds a single outgoing edge of a table.
// edgeLabel is an action name, or "__default__" for the default edge.
func (p *Pipeline) ChangeTableNext(tableName, edgeLabel, nextName string) *ReconfigError {
	node, ok := p.node(tableName)
	if !ok || node.Kind != KindTable {
		return NewError(InvalidCommandError, "table %q not found in running graph", tableName)
	}
	if nextName != EmptyEdge {
		if _, ok := p.node(nextName); !ok {
			return NewError(UnfoundIDError, "next node %q does not exist in running graph", nextName)
		}
	}
	if edgeLabel == "__default__" {
		node.DefaultNext = nextName
		return nil
	}
	node.ActionNext[edgeLabel] = nextName
	return nil
}

// ChangeConditionalNext rebinds true_next or false_next of a
// conditional or Flex node — the two share this implementation per
// spec.md §4.1.
func (p *Pipeline) ChangeConditionalNext(name, edgeLabel, nextName string) *ReconfigError {
	node, ok := p.node(name)
	if !ok || (node.Kind != KindConditional && node.Kind != KindFlex) {
		return NewError(InvalidCommandError, "conditional/flex %q not found in running graph", name)
	}
	if nextName != EmptyEdge {
		if _, ok := p.node(nextName); !ok {
			return NewError(UnfoundIDError, "next node %q does not exist in running graph", nextName)
		}
	}
	switch edgeLabel {
	case "true_next":
		node.TrueNext = nextName
	case "false_next":
		node.FalseNext = nextName
	default:
		return NewError(InvalidCommandError, "invalid edge label %q for conditional/flex", edgeLabel)
	}
	return nil
}

// deleteNode is shared by DeleteMatchTable/DeleteConditional/DeleteFlex.
// Per spec.md §9, deletion does not search for inbound edges: only the
// init-node guard is enforced, and the caller is responsible for having
// already rewired predecessors.
func (p *Pipeline) deleteNode(name string, wantKind NodeKind) *ReconfigError {
	node, ok := p.node(name)
	if !ok || node.Kind != wantKind {
		return NewError(InvalidCommandError, "%s %q not found in running graph", wantKind, name)
	}
	if p.Init == name {
		return NewError(InvalidCommandError, "cannot delete init node %q", name)
	}
	delete(p.Nodes, name)
	return nil
}

func (p *Pipeline) DeleteMatchTable(name string) *ReconfigError  { return p.deleteNode(name, KindTable) }
func (p *Pipeline) DeleteConditional(name string) *ReconfigError { return p.deleteNode(name, KindConditional) }
func (p *Pipeline) DeleteFlex(name string) *ReconfigError         { return p.deleteNode(name, KindFlex) }

// ChangeInitNode atomically retargets the pipeline's entry pointer.
func (p *Pipeline) ChangeInitNode(nextName string) *ReconfigError {
	if nextName != EmptyEdge {
		if _, ok := p.node(nextName); !ok {
			return NewError(UnfoundIDError, "init node target %q does not exist in running graph", nextName)
		}
	}
	p.Init = nextName
	return nil
}

// FlexTrigger arms/disarms every Flex node in the pipeline when
// trigger < 0, or exactly the Flex with the given mount point
// otherwise.
func (p *Pipeline) FlexTrigger(armed bool, trigger int) {
	for _, node := range p.Nodes {
		if node.Kind != KindFlex {
			continue
		}
		if trigger < 0 || node.MountPoint == trigger {
			node.Armed = armed
		}
	}
}

// CheckEdgeClosure verifies the edge-closure invariant of spec.md §8:
// every edge of every reachable node resolves to a node in the
// pipeline, or the empty sentinel.
func (p *Pipeline) CheckEdgeClosure() error {
	visited := map[string]bool{}
	var walk func(name string) error
	walk = func(name string) error {
		if name == EmptyEdge || visited[name] {
			return nil
		}
		visited[name] = true
		node, ok := p.Nodes[name]
		if !ok {
			return fmt.Errorf("dangling reference to node %q", name)
		}
		switch node.Kind {
		case KindTable:
			if node.DefaultNext != EmptyEdge {
				if _, ok := p.Nodes[node.DefaultNext]; !ok {
					return fmt.Errorf("table %q default edge points at missing node %q", name, node.DefaultNext)
				}
			}
			for action, next := range node.ActionNext {
				if next != EmptyEdge {
					if _, ok := p.Nodes[next]; !ok {
						return fmt.Errorf("table %q action %q edge points at missing node %q", name, action, next)
					}
				}
				if err := walk(next); err != nil {
					return err
				}
			}
			return walk(node.DefaultNext)
		case KindConditional, KindFlex:
			if err := walk(node.TrueNext); err != nil {
				return err
			}
			return walk(node.FalseNext)
		default:
			return fmt.Errorf("node %q has unknown kind", name)
		}
	}
	return walk(p.Init)
}
