package calculator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/leofalp/batchcalc/providers/tool"
)

// Name is the tool name advertised to the model.
const Name = "calculator"

var (
	// ErrDivisionByZero is returned for a divide operation with b == 0.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrUnsupportedOperation is returned for operations other than add,
	// subtract, multiply and divide.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Operation names accepted by [Calc].
const (
	OpAdd      = "add"
	OpSubtract = "subtract"
	OpMultiply = "multiply"
	OpDivide   = "divide"
)

var aliases = map[string]string{
	"+": OpAdd, "plus": OpAdd, "sum": OpAdd,
	"-": OpSubtract, "sub": OpSubtract, "minus": OpSubtract,
	"*": OpMultiply, "x": OpMultiply, "×": OpMultiply, "mul": OpMultiply, "times": OpMultiply,
	"/": OpDivide, "÷": OpDivide, "div": OpDivide,
}

// Input holds the operation and its two operands. Operands are pointers so a
// missing operand can be told apart from zero.
type Input struct {
	Operation string   `json:"operation" jsonschema:"description=The arithmetic operation to perform,enum=add,enum=subtract,enum=multiply,enum=divide"`
	A         *float64 `json:"a" jsonschema:"description=The first operand,required"`
	B         *float64 `json:"b" jsonschema:"description=The second operand,required"`
}

// Output carries the result of [Calc].
type Output struct {
	Result float64 `json:"result" jsonschema:"description=The result of the calculation"`
}

// NewCalculatorTool returns the calculator as a [tool.Tool] ready to be added
// to a catalog.
func NewCalculatorTool() *tool.Tool[Input, Output] {
	return tool.NewTool[Input, Output](
		Name,
		Calc,
		tool.WithDescription("Perform basic arithmetic operations on two numbers: add, subtract, multiply or divide."),
	)
}

// Calc applies req.Operation to req.A and req.B. Operation names are matched
// case-insensitively and common symbols such as "+" or "÷" are accepted.
//
//	out, err := Calc(ctx, Input{Operation: "divide", A: ptr(100), B: ptr(4)})
//	// out.Result == 25
func Calc(_ context.Context, req Input) (Output, error) {
	if req.A == nil || req.B == nil {
		return Output{}, fmt.Errorf("%w: operands a and b are required", tool.ErrInvalidArguments)
	}
	a, b := *req.A, *req.B

	var result float64
	switch op := normalize(req.Operation); op {
	case OpAdd:
		result = a + b
	case OpSubtract:
		result = a - b
	case OpMultiply:
		result = a * b
	case OpDivide:
		if b == 0 {
			return Output{}, fmt.Errorf("%w: %v / %v", ErrDivisionByZero, a, b)
		}
		result = a / b
	default:
		return Output{}, fmt.Errorf("%w: %q", ErrUnsupportedOperation, req.Operation)
	}

	if math.IsInf(result, 0) {
		return Output{}, fmt.Errorf("%w: result of %s(%v, %v) overflows", tool.ErrInvalidArguments, req.Operation, a, b)
	}
	return Output{Result: result}, nil
}

func normalize(operation string) string {
	op := strings.ToLower(strings.TrimSpace(operation))
	if canonical, ok := aliases[op]; ok {
		return canonical
	}
	return op
}
