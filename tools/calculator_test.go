package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"1 + 2 * 3", 7},
		{"(5.25 - 4.75) * 100", 50},
		{"10 / 4", 2.5},
		{"-3 + +1", -2},
		{"0.1 + 0.2", 0.3},
		{"sqrt(16)", 4},
		{"abs(-2.5)", 2.5},
		{"pow(2, 10)", 1024},
		{"pow(1.5; 2)", 2.25},
		{"round(2.345, 2)", 2.35},
		{"round(2.344, 2)", 2.34},
		{"round(2.5)", 2},
		{"exp(0) + log(1)", 1},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	for _, expr := range []string{
		"",
		"1 / 0",
		"1 / (2 - 2)",
		"2 ** 3",
		"x + 1",
		`"a" + "b"`,
		"sqrt(1, 2)",
		"pow(2)",
		"round()",
		"unknown(1)",
		"log(0)",
		"1 % 2",
		"fmt.Println(1)",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := Evaluate(expr)
			var validation *econflux.ValidationError
			assert.True(t, errors.As(err, &validation), "got %v", err)
		})
	}
}

func TestCalculatorTool(t *testing.T) {
	tool := NewCalculatorTool()
	assert.Equal(t, "calculator", tool.Name())

	result, err := tool.Execute(context.Background(), map[string]interface{}{"expression": " 4.5 - 4.25 "})
	require.NoError(t, err)
	calc, ok := result.Data.(Calculation)
	require.True(t, ok, "got %T", result.Data)
	assert.Equal(t, "4.5 - 4.25", calc.Expression)
	assert.InDelta(t, 0.25, calc.Result, 1e-12)

	_, err = tool.Execute(context.Background(), map[string]interface{}{})
	assert.Error(t, err, "expression is required")
}
