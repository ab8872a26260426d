package choice

import "encoding/json"

// Rule mirrors an Amazon States Language choice rule. Only the comparison
// operators Build can render are decoded.
type Rule struct {
	Variable string `json:"Variable,omitempty" yaml:"Variable,omitempty"`
	Next     string `json:"Next,omitempty" yaml:"Next,omitempty"`

	BooleanEquals            any      `json:"BooleanEquals,omitempty" yaml:"BooleanEquals,omitempty"`
	StringEquals             *string  `json:"StringEquals,omitempty" yaml:"StringEquals,omitempty"`
	NumericEquals            *float64 `json:"NumericEquals,omitempty" yaml:"NumericEquals,omitempty"`
	NumericLessThan          *float64 `json:"NumericLessThan,omitempty" yaml:"NumericLessThan,omitempty"`
	NumericLessThanEquals    *float64 `json:"NumericLessThanEquals,omitempty" yaml:"NumericLessThanEquals,omitempty"`
	NumericGreaterThan       *float64 `json:"NumericGreaterThan,omitempty" yaml:"NumericGreaterThan,omitempty"`
	NumericGreaterThanEquals *float64 `json:"NumericGreaterThanEquals,omitempty" yaml:"NumericGreaterThanEquals,omitempty"`
	IsNull                   *bool    `json:"IsNull,omitempty" yaml:"IsNull,omitempty"`
	IsPresent                *bool    `json:"IsPresent,omitempty" yaml:"IsPresent,omitempty"`

	And []Rule `json:"And,omitempty" yaml:"And,omitempty"`
	Or  []Rule `json:"Or,omitempty" yaml:"Or,omitempty"`
	Not *Rule  `json:"Not,omitempty" yaml:"Not,omitempty"`
}

// NormalizeNumbers converts json.Number values left by a UseNumber decoder.
func (r *Rule) NormalizeNumbers() {
	if n, ok := r.BooleanEquals.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			r.BooleanEquals = f
		}
	}
	for i := range r.And {
		r.And[i].NormalizeNumbers()
	}
	for i := range r.Or {
		r.Or[i].NormalizeNumbers()
	}
	if r.Not != nil {
		r.Not.NormalizeNumbers()
	}
}
