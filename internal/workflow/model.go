package workflow

import (
	"encoding/json"

	"github.com/awmpietro/golang-execution-graph/internal/workflow/choice"
)

type Status string

const (
	StatusNotStarted  Status = "not_started"
	StatusNormal      Status = "normal"
	StatusInProgress  Status = "in_progress"
	StatusSuccess     Status = "success"
	StatusCaughtError Status = "caught_error"
	StatusFailure     Status = "failure"
)

const (
	StartID = "Start"
	EndID   = "End"
)

type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Status   Status `json:"status"`
	Type     string `json:"type,omitempty"`
	Terminal bool   `json:"isTerminal,omitempty"`
}

type Edge struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Condition  any    `json:"condition,omitempty"`
	Expression string `json:"expression,omitempty"`
	Default    bool   `json:"default,omitempty"`
	Taken      bool   `json:"taken,omitempty"`

	// program is Expression compiled once; clones share it read-only.
	program *choice.Compiled
}

// Eval runs the compiled branch expression against a Choice state's input.
// decided is false when the edge has no usable expression or evaluation
// failed, so the caller cannot tell whether the branch would have matched.
func (e *Edge) Eval(input map[string]any) (matched, decided bool) {
	if e.program == nil {
		return false, false
	}
	ok, err := e.program.Eval(input)
	if err != nil {
		return false, false
	}
	return ok, true
}

// Graph owns its nodes and edges. index maps a node id to the position of the
// first node carrying it.
type Graph struct {
	Nodes []Node
	Edges []Edge
	index map[string]int
}

func NewGraph() *Graph {
	return &Graph{index: map[string]int{}}
}

func (g *Graph) AddNode(n Node) {
	if g.index == nil {
		g.reindex()
	}
	if _, ok := g.index[n.ID]; !ok {
		g.index[n.ID] = len(g.Nodes)
	}
	g.Nodes = append(g.Nodes, n)
}

func (g *Graph) AddEdge(e Edge) {
	g.Edges = append(g.Edges, e)
}

func (g *Graph) Node(id string) (*Node, bool) {
	if g.index == nil {
		g.reindex()
	}
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

// SetStatus reports whether a node with the given id exists. Unknown ids leave
// the graph untouched.
func (g *Graph) SetStatus(id string, status Status) bool {
	n, ok := g.Node(id)
	if !ok {
		return false
	}
	n.Status = status
	return true
}

func (g *Graph) Outgoing(id string) []int {
	var out []int
	for i, e := range g.Edges {
		if e.From == id {
			out = append(out, i)
		}
	}
	return out
}

func (g *Graph) Clone() *Graph {
	c := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(c.Nodes, g.Nodes)
	copy(c.Edges, g.Edges)
	c.reindex()
	return c
}

func (g *Graph) reindex() {
	g.index = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, ok := g.index[n.ID]; !ok {
			g.index[n.ID] = i
		}
	}
}

func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.StateData())
}

func (g *Graph) UnmarshalJSON(b []byte) error {
	var sd StateData
	if err := json.Unmarshal(b, &sd); err != nil {
		return err
	}
	g.Nodes = sd.States
	g.Edges = sd.Transitions
	for i := range g.Edges {
		if g.Edges[i].Expression == "" {
			continue
		}
		// a stored expression that no longer compiles leaves the branch undecided
		if program, err := choice.Compile(g.Edges[i].Expression); err == nil {
			g.Edges[i].program = program
		}
	}
	g.reindex()
	return nil
}

type StateData struct {
	States      []Node `json:"states"`
	Transitions []Edge `json:"transitions"`
}

func (g *Graph) StateData() StateData {
	sd := StateData{States: g.Nodes, Transitions: g.Edges}
	if sd.States == nil {
		sd.States = []Node{}
	}
	if sd.Transitions == nil {
		sd.Transitions = []Edge{}
	}
	return sd
}

// Result is the wire shape returned to callers.
type Result struct {
	StateData StateData `json:"stateData"`
}

func (g *Graph) Result() Result {
	return Result{StateData: g.StateData()}
}
