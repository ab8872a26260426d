package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	EventExecutionStarted   = "ExecutionStarted"
	EventExecutionSucceeded = "ExecutionSucceeded"
	EventExecutionFailed    = "ExecutionFailed"
	EventExecutionTimedOut  = "ExecutionTimedOut"
	EventExecutionAborted   = "ExecutionAborted"
	EventFailStateEntered   = "FailStateEntered"
	EventChoiceStateEntered = "ChoiceStateEntered"
)

// trackedStateTypes are the state kinds whose enter/exit events move a node's status.
var trackedStateTypes = []string{"Task", "Choice", "Succeed", "Pass", "Wait", "Map", "Parallel"}

var (
	enteredEvents = eventSet("StateEntered")
	exitedEvents  = eventSet("StateExited")
)

func eventSet(suffix string) map[string]struct{} {
	m := make(map[string]struct{}, len(trackedStateTypes))
	for _, t := range trackedStateTypes {
		m[t+suffix] = struct{}{}
	}
	return m
}

type Event struct {
	ID                       int64                `json:"id,omitempty"`
	PreviousEventID          int64                `json:"previousEventId,omitempty"`
	Type                     string               `json:"type"`
	StateEnteredEventDetails *StateEnteredDetails `json:"stateEnteredEventDetails,omitempty"`
	StateExitedEventDetails  *StateExitedDetails  `json:"stateExitedEventDetails,omitempty"`
}

type StateEnteredDetails struct {
	Name  string `json:"name"`
	Input string `json:"input,omitempty"`
}

type StateExitedDetails struct {
	Name   string `json:"name"`
	Output string `json:"output,omitempty"`
}

// ParseEvents accepts either a bare event array or the execution history
// envelope {"events": [...]}.
func ParseEvents(raw []byte) ([]Event, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '{' {
		var envelope struct {
			Events []Event `json:"events"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode event history: %w", err)
		}
		return envelope.Events, nil
	}

	var events []Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

func isEntered(t string) bool {
	_, ok := enteredEvents[t]
	return ok
}

func isExited(t string) bool {
	_, ok := exitedEvents[t]
	return ok
}

func isExecutionFailure(t string) bool {
	switch t {
	case EventExecutionFailed, EventExecutionTimedOut, EventExecutionAborted:
		return true
	}
	return false
}
