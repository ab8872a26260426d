package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/awmpietro/golang-execution-graph/internal/workflow/choice"
)

var ErrEmptyDefinition = errors.New("definition is empty")

type State struct {
	Type    string        `json:"Type" yaml:"Type"`
	Next    string        `json:"Next,omitempty" yaml:"Next,omitempty"`
	End     bool          `json:"End,omitempty" yaml:"End,omitempty"`
	Default string        `json:"Default,omitempty" yaml:"Default,omitempty"`
	Choices []choice.Rule `json:"Choices,omitempty" yaml:"Choices,omitempty"`
	Catch   []Catcher     `json:"Catch,omitempty" yaml:"Catch,omitempty"`
}

type Catcher struct {
	ErrorEquals []string `json:"ErrorEquals,omitempty" yaml:"ErrorEquals,omitempty"`
	Next        string   `json:"Next" yaml:"Next"`
}

type Entry struct {
	Name  string
	State State
}

// Definition keeps states in document order; the first entry is the target of
// the Start edge.
type Definition struct {
	StartAt string
	Entries []Entry
}

func (d *Definition) Has(name string) bool {
	for _, e := range d.Entries {
		if e.Name == name {
			return true
		}
	}
	return false
}

// ParseDefinition accepts a full state machine document ({"StartAt", "States"}),
// a bare States mapping, a JSON string wrapping either, or the YAML form.
func ParseDefinition(raw []byte) (*Definition, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrEmptyDefinition
	}

	switch raw[0] {
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("failed to decode definition string: %w", err)
		}
		return ParseDefinition([]byte(inner))
	case '{':
		return parseJSONDefinition(raw)
	default:
		return parseYAMLDefinition(raw)
	}
}

func parseJSONDefinition(raw []byte) (*Definition, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	def := &Definition{}
	type rawEntry struct {
		name string
		raw  json.RawMessage
	}
	var bare []rawEntry
	sawStates := false

	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		switch key {
		case "States":
			entries, err := readStates(dec)
			if err != nil {
				return nil, fmt.Errorf("failed to decode States: %w", err)
			}
			def.Entries = entries
			sawStates = true
		case "StartAt":
			if err := dec.Decode(&def.StartAt); err != nil {
				return nil, fmt.Errorf("failed to decode StartAt: %w", err)
			}
		default:
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("failed to decode %q: %w", key, err)
			}
			bare = append(bare, rawEntry{name: key, raw: raw})
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	if !sawStates {
		for _, e := range bare {
			if machineFields[e.name] {
				continue
			}
			st, err := decodeJSONState(e.raw)
			if err != nil {
				return nil, fmt.Errorf("failed to decode state %q: %w", e.name, err)
			}
			def.Entries = append(def.Entries, Entry{Name: e.name, State: st})
		}
	}
	normalizeNumbers(def)
	return def, nil
}

// machineFields are top-level state machine keys that never name a state.
var machineFields = map[string]bool{
	"Comment":        true,
	"Version":        true,
	"TimeoutSeconds": true,
	"QueryLanguage":  true,
}

func decodeJSONState(raw json.RawMessage) (State, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var st State
	err := dec.Decode(&st)
	return st, err
}

func readStates(dec *json.Decoder) ([]Entry, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var entries []Entry
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		var st State
		if err := dec.Decode(&st); err != nil {
			return nil, fmt.Errorf("state %q: %w", name, err)
		}
		entries = append(entries, Entry{Name: name, State: st})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return entries, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("failed to read definition key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("unexpected token %v, expected object key", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to parse definition: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("failed to parse definition: expected %q, got %v", want, tok)
	}
	return nil
}

func parseYAMLDefinition(raw []byte) (*Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML definition: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmptyDefinition
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("definition must be a mapping, got YAML kind %d", root.Kind)
	}

	def := &Definition{}
	states := root
	for i := 0; i+1 < len(root.Content); i += 2 {
		switch root.Content[i].Value {
		case "States":
			states = root.Content[i+1]
		case "StartAt":
			def.StartAt = root.Content[i+1].Value
		}
	}
	if states.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("States must be a mapping, got YAML kind %d", states.Kind)
	}

	for i := 0; i+1 < len(states.Content); i += 2 {
		name := states.Content[i].Value
		if states == root && (name == "StartAt" || machineFields[name]) {
			continue
		}
		var st State
		if err := states.Content[i+1].Decode(&st); err != nil {
			return nil, fmt.Errorf("failed to decode state %q: %w", name, err)
		}
		def.Entries = append(def.Entries, Entry{Name: name, State: st})
	}
	return def, nil
}

// normalizeNumbers turns json.Number condition values back into float64 so
// JSON and YAML documents compile to the same edges.
func normalizeNumbers(def *Definition) {
	for i := range def.Entries {
		for j := range def.Entries[i].State.Choices {
			def.Entries[i].State.Choices[j].NormalizeNumbers()
		}
	}
}
