package batch

import (
	"time"

	"github.com/leofalp/batchcalc/providers/ai"
)

// Status is the local lifecycle state of a BatchJob.
type Status int

const (
	// StatusPending means the batch was accepted but not yet observed.
	StatusPending Status = iota
	// StatusInProgress means a poll observed the remote batch still running.
	StatusInProgress
	// StatusCompleted means the remote batch ended with at least one
	// succeeded item.
	StatusCompleted
	// StatusFailed means the remote batch ended without any succeeded item.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CalculationRequest is one natural-language question. ID is the correlation
// token echoed back by the remote service.
type CalculationRequest struct {
	ID     string `json:"id" yaml:"id"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// CalculationResult is the outcome of one request. Err is nil on success and
// otherwise wraps one of the item-level sentinel errors.
type CalculationResult struct {
	RequestID string
	Value     float64
	Err       error
}

// BatchJob tracks one submitted batch. It is created by Submit and updated in
// place by Poll; it is not safe for concurrent use.
type BatchJob struct {
	ID            string
	Requests      []CalculationRequest
	Status        Status
	RequestCounts ai.BatchRequestCounts
	CreatedAt     time.Time
	EndedAt       *time.Time

	// results holds the downloaded item results once the job is terminal.
	results []ai.BatchItemResult
}

// Results returns a copy of the raw item results downloaded when the batch
// ended, in the order the remote service returned them. It is empty until
// the job is terminal.
func (j *BatchJob) Results() []ai.BatchItemResult {
	return append([]ai.BatchItemResult(nil), j.results...)
}

func (j *BatchJob) observe(batch *ai.Batch) {
	j.RequestCounts = batch.RequestCounts
	if !batch.CreatedAt.IsZero() {
		j.CreatedAt = batch.CreatedAt
	}
	if batch.EndedAt != nil {
		j.EndedAt = batch.EndedAt
	}
}
