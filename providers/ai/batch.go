package ai

import "time"

// BatchProcessingStatus is the remote lifecycle state of a batch.
type BatchProcessingStatus string

const (
	BatchStatusInProgress BatchProcessingStatus = "in_progress"
	BatchStatusCanceling  BatchProcessingStatus = "canceling"
	BatchStatusEnded      BatchProcessingStatus = "ended"
)

// BatchItemResultType discriminates the outcome of a single batch item.
type BatchItemResultType string

const (
	BatchItemSucceeded BatchItemResultType = "succeeded"
	BatchItemErrored   BatchItemResultType = "errored"
	BatchItemCanceled  BatchItemResultType = "canceled"
	BatchItemExpired   BatchItemResultType = "expired"
)

// BatchRequest is one item of a batch submission. CustomID is the caller's
// correlation token and is echoed back on the matching BatchItemResult.
type BatchRequest struct {
	CustomID string      `json:"custom_id"`
	Params   ChatRequest `json:"params"`
}

// BatchRequestCounts tallies the items of a batch by their current state.
type BatchRequestCounts struct {
	Processing int `json:"processing"`
	Succeeded  int `json:"succeeded"`
	Errored    int `json:"errored"`
	Canceled   int `json:"canceled"`
	Expired    int `json:"expired"`
}

// Total returns the number of items accounted for by the counts.
func (c BatchRequestCounts) Total() int {
	return c.Processing + c.Succeeded + c.Errored + c.Canceled + c.Expired
}

// Batch is the provider-agnostic descriptor of a remote batch.
type Batch struct {
	ID               string                `json:"id"`
	ProcessingStatus BatchProcessingStatus `json:"processing_status"`
	RequestCounts    BatchRequestCounts    `json:"request_counts"`
	CreatedAt        time.Time             `json:"created_at"`
	EndedAt          *time.Time            `json:"ended_at,omitempty"`
	ExpiresAt        *time.Time            `json:"expires_at,omitempty"`
	ResultsURL       string                `json:"results_url,omitempty"`
}

// IsEnded reports whether the remote service has finished processing the batch.
func (b *Batch) IsEnded() bool {
	return b != nil && b.ProcessingStatus == BatchStatusEnded
}

// BatchItemError describes why a single item did not succeed.
type BatchItemError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// BatchItemResult is the outcome of a single batch item. Message is set only
// when Type is [BatchItemSucceeded].
type BatchItemResult struct {
	CustomID string              `json:"custom_id"`
	Type     BatchItemResultType `json:"type"`
	Message  *ChatResponse       `json:"message,omitempty"`
	Error    *BatchItemError     `json:"error,omitempty"`
}
