package choice

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Compiled is a branch expression compiled once; Eval is safe for concurrent use.
type Compiled struct {
	Source  string
	program *vm.Program
}

func Compile(expression string) (*Compiled, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty expression")
	}
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile %q: %w", expression, err)
	}
	return &Compiled{Source: expression, program: program}, nil
}

func (c *Compiled) Eval(input map[string]any) (bool, error) {
	if input == nil {
		input = map[string]any{}
	}
	out, err := expr.Run(c.program, input)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression must evaluate to bool (got %T)", out)
	}
	return b, nil
}
