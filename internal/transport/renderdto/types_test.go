package renderdto

import (
	"encoding/json"
	"testing"

	"github.com/awmpietro/golang-execution-graph/internal/app"
	"github.com/awmpietro/golang-execution-graph/internal/workflow"
)

func TestRenderRequest_DecodeEventsEnvelope(t *testing.T) {
	var req RenderRequest
	body := `{"definition":{"A":{"Type":"Task","End":true}},"events":{"events":[{"type":"ExecutionStarted","id":1}]},"debug":true}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatal(err)
	}

	events, err := req.DecodeEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != workflow.EventExecutionStarted {
		t.Fatalf("unexpected events: %+v", events)
	}
	if !req.Options().Debug {
		t.Fatalf("expected debug option")
	}
}

func TestRenderRequest_MissingEventsIsEmpty(t *testing.T) {
	var req RenderRequest
	if err := json.Unmarshal([]byte(`{"definition":{}}`), &req); err != nil {
		t.Fatal(err)
	}
	events, err := req.DecodeEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestRenderRequest_InvalidEvents(t *testing.T) {
	req := RenderRequest{Events: json.RawMessage(`42`)}
	if _, err := req.DecodeEvents(); err == nil {
		t.Fatalf("expected error for non-list events")
	}
}

func TestNewRenderResponse_KeepsEmptySlices(t *testing.T) {
	resp := NewRenderResponse(&app.RenderOutput{Graph: workflow.NewGraph()})
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"stateData":{"states":[],"transitions":[]},"report":{"events":0,"applied":0,"unmatched":0,"malformed":0,"ignored":0}}`
	if string(b) != want {
		t.Fatalf("unexpected body:\n got %s\nwant %s", b, want)
	}
}
