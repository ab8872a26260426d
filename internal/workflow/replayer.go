package workflow

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Report counts what one replay pass did.
type Report struct {
	Events    int `json:"events"`
	Applied   int `json:"applied"`
	Unmatched int `json:"unmatched"`
	Malformed int `json:"malformed"`
	Ignored   int `json:"ignored"`
}

type Replayer struct {
	observer UpdateObserver
}

type ReplayerOption func(*Replayer)

func WithUpdateObserver(observer UpdateObserver) ReplayerOption {
	return func(r *Replayer) {
		r.observer = observer
	}
}

func NewReplayer(opts ...ReplayerOption) *Replayer {
	r := &Replayer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Replay folds events into g in order. It never fails: updates aimed at ids
// the graph does not hold are dropped and counted.
func (r *Replayer) Replay(g *Graph, events []Event) Report {
	s := r.newState(g, nil)
	for i, ev := range events {
		s.apply(i, ev)
	}
	return s.report
}

func (r *Replayer) ReplayWithTrace(g *Graph, events []Event) *ReplayTrace {
	trace := &ReplayTrace{Steps: make([]ReplayStep, 0, len(events))}
	s := r.newState(g, trace)
	for i, ev := range events {
		s.apply(i, ev)
	}
	trace.Report = s.report
	trace.LastEntered = s.previous
	return trace
}

func (r *Replayer) newState(g *Graph, trace *ReplayTrace) *replayState {
	return &replayState{graph: g, trace: trace, observer: r.observer}
}

// replayState is the single accumulator threaded through the fold.
type replayState struct {
	graph    *Graph
	previous string
	report   Report
	trace    *ReplayTrace
	observer UpdateObserver
}

func (s *replayState) apply(i int, ev Event) {
	s.report.Events++
	step := ReplayStep{Index: i, Type: ev.Type}

	switch {
	case ev.Type == EventExecutionStarted:
		s.update(&step, StartID, StatusNormal)

	case isEntered(ev.Type):
		if ev.StateEnteredEventDetails == nil {
			s.ignore(&step, "missing stateEnteredEventDetails")
			break
		}
		id := NormalizeID(ev.StateEnteredEventDetails.Name)
		s.update(&step, id, StatusInProgress)
		s.previous = id
		if ev.Type == EventChoiceStateEntered && ev.StateEnteredEventDetails.Input != "" {
			if to := s.markTaken(id, ev.StateEnteredEventDetails.Input); to != "" {
				step.Note = "branch taken: " + to
			}
		}

	case isExited(ev.Type):
		if ev.StateExitedEventDetails == nil {
			s.ignore(&step, "missing stateExitedEventDetails")
			break
		}
		id := NormalizeID(ev.StateExitedEventDetails.Name)
		status, malformed := exitStatus(ev.StateExitedEventDetails.Output)
		if malformed {
			s.report.Malformed++
			step.Note = "malformed output treated as success"
		}
		s.update(&step, id, status)
		s.previous = id

	case ev.Type == EventFailStateEntered:
		if ev.StateEnteredEventDetails == nil {
			s.ignore(&step, "missing stateEnteredEventDetails")
			break
		}
		s.previous = NormalizeID(ev.StateEnteredEventDetails.Name)
		step.Target = s.previous
		step.Note = "failure point recorded"

	case isExecutionFailure(ev.Type):
		s.update(&step, s.previous, StatusFailure)

	case ev.Type == EventExecutionSucceeded:
		s.update(&step, EndID, StatusNormal)

	default:
		s.ignore(&step, "")
	}

	if s.trace != nil {
		s.trace.Steps = append(s.trace.Steps, step)
	}
}

func (s *replayState) update(step *ReplayStep, id string, status Status) {
	matched := s.graph.SetStatus(id, status)
	step.Target = id
	step.Status = status
	step.Matched = matched
	if matched {
		s.report.Applied++
	} else {
		s.report.Unmatched++
	}
	if s.observer != nil {
		s.observer.ObserveUpdate(Update{EventType: step.Type, Target: id, Status: status, Matched: matched})
	}
}

func (s *replayState) ignore(step *ReplayStep, note string) {
	s.report.Ignored++
	step.Note = note
}

// markTaken flags the first branch of a Choice node whose expression holds
// for the state input, falling back to the Default edge.
func (s *replayState) markTaken(id, input string) string {
	var env map[string]any
	if err := json.Unmarshal([]byte(input), &env); err != nil {
		return ""
	}

	defaultEdge := -1
	undecided := false
	for _, i := range s.graph.Outgoing(id) {
		e := &s.graph.Edges[i]
		if e.Default {
			defaultEdge = i
			continue
		}
		matched, decided := e.Eval(env)
		if !decided {
			// this branch might have matched, so Default cannot be claimed
			undecided = true
			continue
		}
		if !matched {
			continue
		}
		e.Taken = true
		return e.To
	}

	if defaultEdge >= 0 && !undecided {
		s.graph.Edges[defaultEdge].Taken = true
		return s.graph.Edges[defaultEdge].To
	}
	return ""
}

// exitStatus reports caught_error when the output carries a non-null
// errorInfo. Output that is not valid JSON reads as success.
func exitStatus(output string) (Status, bool) {
	if !gjson.Valid(output) {
		return StatusSuccess, true
	}
	info := gjson.Get(output, "errorInfo")
	if info.Exists() && info.Type != gjson.Null {
		return StatusCaughtError, false
	}
	return StatusSuccess, false
}
