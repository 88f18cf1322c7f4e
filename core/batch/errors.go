package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leofalp/batchcalc/providers/tool"
	"github.com/leofalp/batchcalc/providers/tool/calculator"
)

// Batch-level errors stop the flow and are returned by Submit, Poll, Resolve
// and Run.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrRemoteService = errors.New("remote service error")
	ErrTimeout       = errors.New("batch polling timed out")
)

// Item-level errors are attached to a single CalculationResult.
var (
	ErrUnparsableAnswer = errors.New("no number found in answer")
	ErrMissingResult    = errors.New("no result returned for request")
	ErrItemFailed       = errors.New("request failed remotely")

	ErrDivisionByZero       = calculator.ErrDivisionByZero
	ErrUnsupportedOperation = calculator.ErrUnsupportedOperation
	ErrInvalidArguments     = tool.ErrInvalidArguments
	ErrUnknownTool          = tool.ErrUnknownTool
)

// ResolveError reports correlation problems found by Resolve: submitted
// requests that have no result and results whose id was never submitted.
// It matches ErrMissingResult with errors.Is.
type ResolveError struct {
	Missing    []string
	Unexpected []string
}

func (e *ResolveError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("%d request(s) without result: %s", len(e.Missing), strings.Join(e.Missing, ", ")))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("%d result(s) for unknown ids: %s", len(e.Unexpected), strings.Join(e.Unexpected, ", ")))
	}
	return "resolve: " + strings.Join(parts, "; ")
}

func (e *ResolveError) Unwrap() error {
	return ErrMissingResult
}
