package choice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnsupported = errors.New("choice rule cannot be expressed")

// Build renders a rule as an expr expression over the state input,
// e.g. {"Variable":"$.isPdf","BooleanEquals":true} -> `isPdf == true`.
func Build(r Rule) (string, error) {
	switch {
	case len(r.And) > 0:
		return join(r.And, "&&")
	case len(r.Or) > 0:
		return join(r.Or, "||")
	case r.Not != nil:
		inner, err := Build(*r.Not)
		if err != nil {
			return "", err
		}
		return "!(" + inner + ")", nil
	}

	path, err := pathExpr(r.Variable)
	if err != nil {
		return "", err
	}

	switch {
	case r.BooleanEquals != nil:
		b, ok := r.BooleanEquals.(bool)
		if !ok {
			return "", fmt.Errorf("%w: BooleanEquals must be a bool, got %T", ErrUnsupported, r.BooleanEquals)
		}
		return fmt.Sprintf("%s == %t", path, b), nil
	case r.StringEquals != nil:
		return fmt.Sprintf("%s == %s", path, strconv.Quote(*r.StringEquals)), nil
	case r.NumericEquals != nil:
		return compare(path, "==", *r.NumericEquals), nil
	case r.NumericLessThan != nil:
		return compare(path, "<", *r.NumericLessThan), nil
	case r.NumericLessThanEquals != nil:
		return compare(path, "<=", *r.NumericLessThanEquals), nil
	case r.NumericGreaterThan != nil:
		return compare(path, ">", *r.NumericGreaterThan), nil
	case r.NumericGreaterThanEquals != nil:
		return compare(path, ">=", *r.NumericGreaterThanEquals), nil
	case r.IsNull != nil:
		if *r.IsNull {
			return path + " == nil", nil
		}
		return path + " != nil", nil
	case r.IsPresent != nil:
		// a missing key and an explicit null both read as nil
		if *r.IsPresent {
			return path + " != nil", nil
		}
		return path + " == nil", nil
	}

	return "", fmt.Errorf("%w: no supported comparison on %q", ErrUnsupported, r.Variable)
}

func join(rules []Rule, op string) (string, error) {
	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		p, err := Build(r)
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+p+")")
	}
	return strings.Join(parts, " "+op+" "), nil
}

func compare(path, op string, v float64) string {
	return fmt.Sprintf("%s %s %s", path, op, strconv.FormatFloat(v, 'f', -1, 64))
}

// pathExpr maps a reference path like $.detail.kind to detail?.kind.
func pathExpr(variable string) (string, error) {
	if !strings.HasPrefix(variable, "$.") {
		return "", fmt.Errorf("%w: variable %q must start with $.", ErrUnsupported, variable)
	}
	segments := strings.Split(strings.TrimPrefix(variable, "$."), ".")
	for _, s := range segments {
		if err := validateSegment(s); err != nil {
			return "", fmt.Errorf("%w: variable %q: %v", ErrUnsupported, variable, err)
		}
	}
	return strings.Join(segments, "?."), nil
}
