package choice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval_BuiltExpressions(t *testing.T) {
	input := map[string]any{
		"isPdf":  true,
		"pages":  float64(42),
		"detail": map[string]any{"kind": "pdf"},
	}

	tests := []struct {
		expression string
		want       bool
	}{
		{expression: "isPdf == true", want: true},
		{expression: "isPdf == false", want: false},
		{expression: "pages > 10", want: true},
		{expression: `detail?.kind == "pdf"`, want: true},
		{expression: `missing?.kind == "pdf"`, want: false},
		{expression: "missing == nil", want: true},
		{expression: "(isPdf == true) && (pages <= 42)", want: true},
	}

	for _, tc := range tests {
		t.Run(tc.expression, func(t *testing.T) {
			c, err := Compile(tc.expression)
			require.NoError(t, err)
			got, err := c.Eval(input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompile_RejectsNonBool(t *testing.T) {
	_, err := Compile("1 + 1")
	assert.Error(t, err)

	_, err = Compile("  ")
	assert.Error(t, err)
}

func TestCompiled_ReusableAcrossInputs(t *testing.T) {
	c, err := Compile("isPdf == true")
	require.NoError(t, err)

	ok, err := c.Eval(map[string]any{"isPdf": true})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Eval(nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompiled_MissingVariableInComparisonIsAnError(t *testing.T) {
	c, err := Compile("n > 5")
	require.NoError(t, err)

	_, err = c.Eval(map[string]any{})
	assert.Error(t, err)
}
