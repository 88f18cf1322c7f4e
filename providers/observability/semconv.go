package observability

// Semantic conventions for observability attributes, span names and metric
// names. Components use these constants instead of ad hoc strings so log
// lines and metrics stay consistent.

// --- Batch Attributes ---

const (
	AttrBatchProvider      = "batch.provider"
	AttrBatchID            = "batch.id"
	AttrBatchStatus        = "batch.status"
	AttrBatchRemoteStatus  = "batch.remote_status"
	AttrBatchRequestsCount = "batch.requests_count"
	AttrBatchSucceeded     = "batch.succeeded"
	AttrBatchErrored       = "batch.errored"
	AttrBatchExpired       = "batch.expired"
	AttrBatchCanceled      = "batch.canceled"
	AttrBatchProcessing    = "batch.processing"
	AttrBatchResultsCount  = "batch.results_count"

	// AttrPollAttempt is the 1-based number of the status request in a poll loop.
	AttrPollAttempt = "poll.attempt"
	// AttrPollDelay is the wait before the next status request.
	AttrPollDelay = "poll.delay"
	// AttrPollRetry is the number of consecutive failed status requests.
	AttrPollRetry = "poll.retry"
)

// --- Item Attributes ---

const (
	AttrRequestID   = "request.id"
	AttrItemType    = "item.type"
	AttrItemShape   = "item.shape"
	AttrItemOutcome = "item.outcome"
	AttrItemValue   = "item.value"
)

// --- LLM Attributes ---

const (
	AttrLLMModel    = "llm.model"
	AttrLLMEndpoint = "llm.endpoint"
)

// --- Tool Attributes ---

const (
	AttrToolName     = "tool.name"
	AttrToolInput    = "tool.input"
	AttrToolOutput   = "tool.output"
	AttrToolDuration = "tool.duration"
	AttrToolError    = "tool.error"
)

// --- HTTP Attributes ---

const (
	AttrHTTPMethod          = "http.method"
	AttrHTTPStatusCode      = "http.status_code"
	AttrHTTPURL             = "http.url"
	AttrHTTPRequestBodySize = "http.request.body.size"
)

// --- General Attributes ---

const (
	AttrError             = "error"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	SpanBatchSubmit  = "batch.submit"
	SpanBatchPoll    = "batch.poll"
	SpanBatchResolve = "batch.resolve"
	SpanBatchCancel  = "batch.cancel"
	SpanToolExecute  = "tool.execute"
)

// --- Event Names ---

const (
	EventToolExecutionStart = "tool.execution.start"
	EventToolExecutionEnd   = "tool.execution.end"
)

// --- Metric Names ---

const (
	MetricBatchesSubmitted = "batchcalc_batches_submitted_total"
	MetricPollRequests     = "batchcalc_poll_requests_total"
	MetricPollRetries      = "batchcalc_poll_retries_total"
	MetricItemsResolved    = "batchcalc_items_resolved_total"
	MetricPollDuration     = "batchcalc_poll_duration_seconds"
)
