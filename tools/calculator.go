package tools

import (
	"context"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"math"
	"strings"

	"github.com/scttfrdmn/econflux/econflux-go/econflux"
)

// CalculatorParams is the calculator input.
type CalculatorParams struct {
	Expression string `json:"expression" jsonschema:"description=Arithmetic expression such as (5.25 - 4.75) * 100 or pow(1.03; 10). Functions: sqrt abs pow exp log round"`
}

// Calculation is the calculator output.
type Calculation struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
}

// NewCalculatorTool returns the calculator tool.
func NewCalculatorTool() econflux.Tool {
	return MustFunctionTool("calculator",
		"Evaluate an arithmetic expression exactly. Supports + - * / parentheses and "+
			"the functions sqrt abs pow exp log and round(x; places). Use for rate moves "+
			"in basis points and growth or percentage calculations.",
		func(_ context.Context, p CalculatorParams) (Calculation, error) {
			result, err := Evaluate(p.Expression)
			if err != nil {
				return Calculation{}, err
			}
			return Calculation{Expression: strings.TrimSpace(p.Expression), Result: result}, nil
		})
}

// Evaluate computes an arithmetic expression. Integer literals are treated
// as exact decimals, so 10/4 is 2.5. Function arguments may be separated
// by commas or semicolons.
func Evaluate(expression string) (float64, error) {
	expression = strings.TrimSpace(strings.ReplaceAll(expression, ";", ","))
	if expression == "" {
		return 0, econflux.NewValidationError("expression", "must not be empty")
	}
	expr, err := parser.ParseExpr(expression)
	if err != nil {
		return 0, econflux.NewValidationError("expression", err.Error())
	}
	value, err := eval(expr)
	if err != nil {
		return 0, econflux.NewValidationError("expression", err.Error())
	}
	result, _ := constant.Float64Val(value)
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, econflux.NewValidationError("expression", "result is not a finite number")
	}
	return result, nil
}

func eval(expr ast.Expr) (constant.Value, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.INT && e.Kind != token.FLOAT {
			return nil, fmt.Errorf("unsupported literal %s", e.Value)
		}
		return constant.ToFloat(constant.MakeFromLiteral(e.Value, e.Kind, 0)), nil

	case *ast.ParenExpr:
		return eval(e.X)

	case *ast.UnaryExpr:
		x, err := eval(e.X)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case token.ADD, token.SUB:
			return constant.UnaryOp(e.Op, x, 0), nil
		}
		return nil, fmt.Errorf("unsupported operator %s", e.Op)

	case *ast.BinaryExpr:
		x, err := eval(e.X)
		if err != nil {
			return nil, err
		}
		y, err := eval(e.Y)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case token.ADD, token.SUB, token.MUL:
			return constant.BinaryOp(x, e.Op, y), nil
		case token.QUO:
			if constant.Sign(y) == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return constant.BinaryOp(x, e.Op, y), nil
		}
		return nil, fmt.Errorf("unsupported operator %s", e.Op)

	case *ast.CallExpr:
		return call(e)
	}
	return nil, fmt.Errorf("unsupported expression %T", expr)
}

var unaryFuncs = map[string]func(float64) float64{
	"sqrt": math.Sqrt,
	"abs":  math.Abs,
	"exp":  math.Exp,
	"log":  math.Log,
}

func call(e *ast.CallExpr) (constant.Value, error) {
	ident, ok := e.Fun.(*ast.Ident)
	if !ok {
		return nil, fmt.Errorf("unsupported function call")
	}

	args := make([]float64, len(e.Args))
	for i, arg := range e.Args {
		v, err := eval(arg)
		if err != nil {
			return nil, err
		}
		args[i], _ = constant.Float64Val(v)
	}

	var result float64
	switch name := ident.Name; {
	case unaryFuncs[name] != nil:
		if len(args) != 1 {
			return nil, fmt.Errorf("%s takes 1 argument", name)
		}
		result = unaryFuncs[name](args[0])
	case name == "pow":
		if len(args) != 2 {
			return nil, fmt.Errorf("pow takes 2 arguments")
		}
		result = math.Pow(args[0], args[1])
	case name == "round":
		if len(args) < 1 || len(args) > 2 {
			return nil, fmt.Errorf("round takes 1 or 2 arguments")
		}
		places := 0.0
		if len(args) == 2 {
			places = args[1]
		}
		scale := math.Pow(10, math.Trunc(places))
		result = math.RoundToEven(args[0]*scale) / scale
	default:
		return nil, fmt.Errorf("unknown function %s", name)
	}

	if math.IsInf(result, 0) || math.IsNaN(result) {
		return nil, fmt.Errorf("%s result is not a finite number", ident.Name)
	}
	return constant.MakeFloat64(result), nil
}
