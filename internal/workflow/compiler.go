package workflow

import (
	"github.com/awmpietro/golang-execution-graph/internal/workflow/choice"
)

// DefaultTerminalNames are state names that always route to End regardless of
// their Next or Catch fields.
var DefaultTerminalNames = []string{"EndProcessing", "Handle Error", "End Process"}

type Compiler struct {
	terminalNames map[string]struct{}
}

type CompilerOption func(*Compiler)

func WithTerminalNames(names ...string) CompilerOption {
	return func(c *Compiler) {
		c.terminalNames = make(map[string]struct{}, len(names))
		for _, n := range names {
			c.terminalNames[n] = struct{}{}
		}
	}
}

func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{}
	WithTerminalNames(DefaultTerminalNames...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile parses a raw definition document and compiles it.
func (c *Compiler) Compile(raw []byte) (*Graph, error) {
	def, err := ParseDefinition(raw)
	if err != nil {
		return nil, err
	}
	return c.CompileDefinition(def), nil
}

// CompileDefinition never fails: cycles, dangling Next targets and duplicate
// ids are carried into the graph as they are.
func (c *Compiler) CompileDefinition(def *Definition) *Graph {
	g := NewGraph()
	g.AddNode(Node{ID: StartID, Label: StartID, Status: StatusNotStarted})

	for _, entry := range def.Entries {
		id := NormalizeID(entry.Name)
		st := entry.State

		node := Node{ID: id, Label: entry.Name, Status: StatusNotStarted, Type: st.Type}

		if len(g.Edges) == 0 {
			g.AddEdge(Edge{From: StartID, To: id})
		}

		switch {
		case st.Type == "Choice":
			for _, rule := range st.Choices {
				e := Edge{From: id, To: c.target(def, rule.Next), Condition: rule.BooleanEquals}
				if expression, err := choice.Build(rule); err == nil {
					if program, err := choice.Compile(expression); err == nil {
						e.Expression = expression
						e.program = program
					}
				}
				g.AddEdge(e)
			}
			if st.Default != "" {
				g.AddEdge(Edge{From: id, To: c.target(def, st.Default), Default: true})
			}
		case c.isTerminalName(entry.Name):
			node.Terminal = true
			g.AddEdge(Edge{From: id, To: EndID})
		case isTerminalState(st):
			node.Terminal = true
			g.AddEdge(Edge{From: id, To: EndID})
			c.addCatch(g, def, id, st)
		default:
			g.AddEdge(Edge{From: id, To: c.target(def, st.Next)})
			c.addCatch(g, def, id, st)
		}

		g.AddNode(node)
	}

	g.AddNode(Node{ID: EndID, Label: EndID, Status: StatusNotStarted})
	return g
}

// isTerminalName reports a configured terminal alias. These route straight to
// End; their Next and Catch fields are ignored.
func (c *Compiler) isTerminalName(name string) bool {
	_, ok := c.terminalNames[name]
	return ok
}

// isTerminalState reports a state that ends the workflow by its own fields.
// Its first Catch is still an outgoing edge.
func isTerminalState(st State) bool {
	switch st.Type {
	case "Succeed", "Fail":
		return true
	}
	return st.End || st.Next == ""
}

// addCatch models the first Catch clause only.
func (c *Compiler) addCatch(g *Graph, def *Definition, id string, st State) {
	if len(st.Catch) == 0 {
		return
	}
	g.AddEdge(Edge{From: id, To: c.target(def, st.Catch[0].Next)})
}

// target resolves a transition name. A terminal alias that is not itself a
// defined state stands for End.
func (c *Compiler) target(def *Definition, name string) string {
	if c.isTerminalName(name) && !def.Has(name) {
		return EndID
	}
	return NormalizeID(name)
}
