package app

import (
	"context"

	"github.com/awmpietro/golang-execution-graph/internal/workflow"
)

type RenderService interface {
	Render(ctx context.Context, definition []byte, events []workflow.Event, opts RenderOptions) (*RenderOutput, error)
}

type RenderOptions struct {
	// Debug asks for a per-event replay trace.
	Debug bool
}

type RenderOutput struct {
	Graph  *workflow.Graph
	Report workflow.Report
	Trace  *workflow.ReplayTrace
}
