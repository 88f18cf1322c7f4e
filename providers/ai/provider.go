package ai

import (
	"context"
	"net/http"
)

// BatchProvider is the interface every asynchronous batch backend must
// satisfy. A batch is created once, observed through RetrieveBatch until its
// processing status is [BatchStatusEnded], and then its per-item results are
// downloaded with BatchResults.
type BatchProvider interface {
	// CreateBatch submits all requests as a single batch and returns the
	// freshly created batch descriptor. Exactly one outbound call is made.
	CreateBatch(ctx context.Context, requests []BatchRequest) (*Batch, error)

	// RetrieveBatch returns the current state of a previously created batch.
	RetrieveBatch(ctx context.Context, batchID string) (*Batch, error)

	// BatchResults downloads the per-item results of an ended batch. The order
	// of the returned slice is the order chosen by the remote service and must
	// not be relied upon; correlate by CustomID.
	BatchResults(ctx context.Context, batchID string) ([]BatchItemResult, error)

	// CancelBatch asks the remote service to stop processing the batch.
	// Items already processed keep their results.
	CancelBatch(ctx context.Context, batchID string) (*Batch, error)

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) BatchProvider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) BatchProvider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) BatchProvider
}
