package renderdto

import (
	"encoding/json"
	"fmt"

	"github.com/awmpietro/golang-execution-graph/internal/app"
	"github.com/awmpietro/golang-execution-graph/internal/workflow"
)

// RenderRequest carries the definition as a JSON object, a JSON string
// (JSON or YAML inside) and the execution events as an array or an
// {"events": [...]} history envelope.
type RenderRequest struct {
	Definition json.RawMessage `json:"definition"`
	Events     json.RawMessage `json:"events"`
	Debug      bool            `json:"debug,omitempty"`
}

func (r RenderRequest) Options() app.RenderOptions {
	return app.RenderOptions{Debug: r.Debug}
}

func (r RenderRequest) DecodeEvents() ([]workflow.Event, error) {
	events, err := workflow.ParseEvents(r.Events)
	if err != nil {
		return nil, fmt.Errorf("invalid events: %w", err)
	}
	return events, nil
}

type RenderResponse struct {
	StateData workflow.StateData    `json:"stateData"`
	Report    workflow.Report       `json:"report"`
	Trace     *workflow.ReplayTrace `json:"trace,omitempty"`
}

func NewRenderResponse(out *app.RenderOutput) RenderResponse {
	return RenderResponse{
		StateData: out.Graph.StateData(),
		Report:    out.Report,
		Trace:     out.Trace,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
