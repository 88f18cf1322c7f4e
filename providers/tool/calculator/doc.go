// Package calculator provides the locally executed "calculator" tool: the
// four basic arithmetic operations over two floating-point operands.
//
// [NewCalculatorTool] returns the tool wrapper for a [tool.Catalog]; [Calc]
// is the underlying pure function. Division by zero and unknown operations
// are reported through [ErrDivisionByZero] and [ErrUnsupportedOperation]
// rather than producing infinities or zero.
package calculator
