package render

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/awmpietro/golang-execution-graph/internal/workflow"
)

const graphName = "StateMachine"

var fillColors = map[workflow.Status]string{
	workflow.StatusNotStarted:  "white",
	workflow.StatusNormal:      "lightgrey",
	workflow.StatusInProgress:  "lightblue",
	workflow.StatusSuccess:     "palegreen",
	workflow.StatusCaughtError: "orange",
	workflow.StatusFailure:     "tomato",
}

// DOT renders g as a Graphviz digraph: nodes filled by status, choice branches
// labelled with their condition, taken branches drawn bold.
func DOT(g *workflow.Graph) (string, error) {
	out := gographviz.NewGraph()
	if err := out.SetName(graphName); err != nil {
		return "", err
	}
	if err := out.SetDir(true); err != nil {
		return "", err
	}
	if err := out.AddAttr(graphName, "rankdir", "TB"); err != nil {
		return "", err
	}

	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		if err := out.AddNode(graphName, quote(n.ID), nodeAttrs(n)); err != nil {
			return "", fmt.Errorf("failed to add node %q: %w", n.ID, err)
		}
	}

	for _, e := range g.Edges {
		if err := out.AddEdge(quote(e.From), quote(e.To), true, edgeAttrs(e)); err != nil {
			return "", fmt.Errorf("failed to add edge %s->%s: %w", e.From, e.To, err)
		}
	}

	return out.String(), nil
}

func nodeAttrs(n workflow.Node) map[string]string {
	color, ok := fillColors[n.Status]
	if !ok {
		color = fillColors[workflow.StatusNotStarted]
	}
	attrs := map[string]string{
		"label":     quote(n.Label),
		"style":     "filled",
		"fillcolor": color,
		"tooltip":   quote(string(n.Status)),
	}
	if n.ID == workflow.StartID || n.ID == workflow.EndID {
		attrs["shape"] = "circle"
	} else if n.Type == "Choice" {
		attrs["shape"] = "diamond"
	} else {
		attrs["shape"] = "box"
	}
	return attrs
}

func edgeAttrs(e workflow.Edge) map[string]string {
	attrs := map[string]string{}
	if e.Condition != nil {
		attrs["label"] = quote(fmt.Sprint(e.Condition))
	} else if e.Default {
		attrs["label"] = quote("default")
	}
	if e.Default {
		attrs["style"] = "dashed"
	}
	if e.Taken {
		attrs["penwidth"] = "2"
	}
	return attrs
}

func quote(s string) string {
	return strconv.Quote(s)
}
