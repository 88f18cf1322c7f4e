package batch

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leofalp/batchcalc/core/parse"
	"github.com/leofalp/batchcalc/providers/ai"
	"github.com/leofalp/batchcalc/providers/observability"
	"github.com/leofalp/batchcalc/providers/tool"
	"github.com/leofalp/batchcalc/providers/tool/calculator"
)

const (
	// DefaultModel is the model used when WithModel is not given.
	DefaultModel = "claude-3-5-sonnet-20241022"

	// DefaultMaxTokens is max_tokens for each request of the batch.
	DefaultMaxTokens = 1024

	// DefaultConcurrency bounds parallel item resolution.
	DefaultConcurrency = 4

	// DefaultSystemPrompt asks the model to call the calculator instead of
	// narrating its plan.
	DefaultSystemPrompt = "You are a helpful calculator assistant. When users ask you to perform calculations, " +
		"use the calculator tool directly without explaining what you're going to do first."
)

// customIDPattern is the alphabet the remote service accepts for custom ids.
var customIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Orchestrator submits calculation prompts as one batch, polls it until it
// ends and resolves every answer to a number, running tools locally when the
// model asks for them.
//
// An Orchestrator is safe for concurrent use; the BatchJob values it returns
// are not.
type Orchestrator struct {
	provider     ai.BatchProvider
	model        string
	systemPrompt string
	maxTokens    int
	temperature  *float64
	toolChoice   *ai.ToolChoice
	tools        *tool.Catalog
	policy       PollPolicy
	observer     observability.Provider
	concurrency  int
}

// New creates an Orchestrator on top of provider. Without options it offers
// the calculator tool, uses [DefaultModel], [DefaultSystemPrompt],
// [DefaultMaxTokens], [DefaultPollPolicy] and discards observability data.
//
//	orchestrator := batch.New(anthropic.New(),
//	    batch.WithPollPolicy(batch.PollPolicy{Timeout: 30 * time.Minute}),
//	    batch.WithObserver(slogobs.New()),
//	)
//	results, err := orchestrator.Run(ctx, requests)
func New(provider ai.BatchProvider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:     provider,
		model:        DefaultModel,
		systemPrompt: DefaultSystemPrompt,
		maxTokens:    DefaultMaxTokens,
		tools:        tool.NewCatalogWithTools(calculator.NewCalculatorTool()),
		policy:       DefaultPollPolicy(),
		observer:     observability.Nop(),
		concurrency:  DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run submits requests, polls the batch until it ends and resolves the
// results. The returned slice matches requests in length and order. A
// *ResolveError may be returned together with the full result slice.
func (o *Orchestrator) Run(ctx context.Context, requests []CalculationRequest) ([]CalculationResult, error) {
	job, err := o.Submit(ctx, requests)
	if err != nil {
		return nil, err
	}
	if _, err := o.Poll(ctx, job); err != nil {
		return nil, err
	}
	return o.Resolve(ctx, job)
}

// Submit validates requests and sends them to the provider as one batch.
// Invalid input is reported as ErrInvalidInput without any remote call.
// The returned job is StatusPending.
func (o *Orchestrator) Submit(ctx context.Context, requests []CalculationRequest) (*BatchJob, error) {
	if err := validateRequests(requests); err != nil {
		return nil, err
	}

	ctx = observability.ContextWithObserver(ctx, o.observer)
	ctx, span := o.observer.StartSpan(ctx, observability.SpanBatchSubmit,
		observability.Int(observability.AttrBatchRequestsCount, len(requests)),
		observability.String(observability.AttrLLMModel, o.model),
	)
	defer span.End()

	descriptions := o.tools.Descriptions()
	batchRequests := make([]ai.BatchRequest, len(requests))
	for i, request := range requests {
		batchRequests[i] = ai.BatchRequest{
			CustomID: request.ID,
			Params:   o.chatRequest(request.Prompt, descriptions),
		}
	}

	remote, err := o.provider.CreateBatch(ctx, batchRequests)
	if err != nil {
		err = fmt.Errorf("%w: create batch: %w", ErrRemoteService, err)
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "create batch failed")
		o.observer.Error(ctx, "Batch submission failed", observability.Error(err))
		return nil, err
	}
	if remote == nil || remote.ID == "" {
		err := fmt.Errorf("%w: create batch returned no batch id", ErrRemoteService)
		span.SetStatus(observability.StatusError, err.Error())
		return nil, err
	}

	job := &BatchJob{
		ID:       remote.ID,
		Requests: append([]CalculationRequest(nil), requests...),
		Status:   StatusPending,
	}
	job.observe(remote)

	span.SetAttributes(observability.String(observability.AttrBatchID, job.ID))
	span.SetStatus(observability.StatusOK, "")
	o.observer.Counter(observability.MetricBatchesSubmitted).Add(ctx, 1)
	o.observer.Info(ctx, "Batch submitted",
		observability.String(observability.AttrBatchID, job.ID),
		observability.Int(observability.AttrBatchRequestsCount, len(requests)),
	)

	return job, nil
}

// Poll waits until the remote batch ends, then downloads its results and
// moves the job to StatusCompleted or StatusFailed. A job that is already
// terminal is returned unchanged without any remote call.
//
// Transient failures are retried per the poll policy; anything else, or too
// many consecutive failures, returns ErrRemoteService. When the policy
// timeout or the caller's deadline elapses Poll returns ErrTimeout and the
// job keeps its last observed status. Cancelling ctx returns ctx.Err(). The
// remote batch is never canceled by Poll.
func (o *Orchestrator) Poll(ctx context.Context, job *BatchJob) (*BatchJob, error) {
	if job == nil {
		return nil, fmt.Errorf("%w: nil job", ErrInvalidInput)
	}
	if job.Status.IsTerminal() {
		return job, nil
	}

	ctx = observability.ContextWithObserver(ctx, o.observer)
	ctx, span := o.observer.StartSpan(ctx, observability.SpanBatchPoll,
		observability.String(observability.AttrBatchID, job.ID),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		o.observer.Histogram(observability.MetricPollDuration).Record(ctx, time.Since(start).Seconds(),
			observability.String(observability.AttrBatchStatus, job.Status.String()),
		)
	}()

	pollCtx := ctx
	if o.policy.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, o.policy.Timeout)
		defer cancel()
	}

	err := o.pollUntilEnded(ctx, pollCtx, job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "poll stopped")
		span.SetAttributes(observability.String(observability.AttrBatchStatus, job.Status.String()))
		o.observer.Warn(ctx, "Batch polling stopped",
			observability.String(observability.AttrBatchID, job.ID),
			observability.String(observability.AttrBatchStatus, job.Status.String()),
			observability.Error(err),
		)
		return job, err
	}

	span.SetAttributes(
		observability.String(observability.AttrBatchStatus, job.Status.String()),
		observability.Int(observability.AttrBatchResultsCount, len(job.results)),
	)
	span.SetStatus(observability.StatusOK, "")
	return job, nil
}

func (o *Orchestrator) pollUntilEnded(ctx, pollCtx context.Context, job *BatchJob) error {
	for observation := 0; ; observation++ {
		var remote *ai.Batch
		err := o.retry(ctx, pollCtx, job.ID, "retrieve batch", func(callCtx context.Context) error {
			o.observer.Counter(observability.MetricPollRequests).Add(callCtx, 1)
			var err error
			remote, err = o.provider.RetrieveBatch(callCtx, job.ID)
			if err == nil && remote == nil {
				err = errors.New("empty batch object")
			}
			return err
		})
		if err != nil {
			return err
		}

		job.observe(remote)
		if remote.IsEnded() {
			return o.collectResults(ctx, pollCtx, job)
		}

		job.Status = StatusInProgress
		delay := o.policy.interval(observation)
		o.observer.Debug(ctx, "Batch still processing",
			observability.String(observability.AttrBatchID, job.ID),
			observability.String(observability.AttrBatchRemoteStatus, string(remote.ProcessingStatus)),
			observability.Int(observability.AttrBatchProcessing, remote.RequestCounts.Processing),
			observability.Int(observability.AttrBatchSucceeded, remote.RequestCounts.Succeeded),
			observability.Int(observability.AttrPollAttempt, observation+1),
			observability.Duration(observability.AttrPollDelay, delay),
		)

		if err := sleep(pollCtx, delay); err != nil {
			return o.stopError(ctx, pollCtx)
		}
	}
}

// collectResults downloads the item results of an ended batch and settles
// the job status.
func (o *Orchestrator) collectResults(ctx, pollCtx context.Context, job *BatchJob) error {
	var results []ai.BatchItemResult
	err := o.retry(ctx, pollCtx, job.ID, "download results", func(callCtx context.Context) error {
		var err error
		results, err = o.provider.BatchResults(callCtx, job.ID)
		return err
	})
	if err != nil {
		return err
	}

	succeeded := 0
	for _, result := range results {
		if result.Type == ai.BatchItemSucceeded {
			succeeded++
		}
	}

	job.results = results
	job.Status = StatusFailed
	if succeeded > 0 {
		job.Status = StatusCompleted
	}

	o.observer.Info(ctx, "Batch ended",
		observability.String(observability.AttrBatchID, job.ID),
		observability.String(observability.AttrBatchStatus, job.Status.String()),
		observability.Int(observability.AttrBatchResultsCount, len(results)),
		observability.Int(observability.AttrBatchSucceeded, succeeded),
		observability.Int(observability.AttrBatchErrored, job.RequestCounts.Errored),
		observability.Int(observability.AttrBatchExpired, job.RequestCounts.Expired),
		observability.Int(observability.AttrBatchCanceled, job.RequestCounts.Canceled),
	)
	return nil
}

// retry runs call until it succeeds, fails with a non-retryable error or has
// failed MaxRetries+1 times in a row.
func (o *Orchestrator) retry(ctx, pollCtx context.Context, batchID, what string, call func(context.Context) error) error {
	for failures := 0; ; failures++ {
		err := call(pollCtx)
		if err == nil {
			return nil
		}
		if stopErr := o.stopError(ctx, pollCtx); stopErr != nil {
			return stopErr
		}
		if !o.policy.Retryable(err) {
			return fmt.Errorf("%w: %s %s: %w", ErrRemoteService, what, batchID, err)
		}
		if failures >= o.policy.MaxRetries {
			return fmt.Errorf("%w: %s %s: giving up after %d retries: %w", ErrRemoteService, what, batchID, o.policy.MaxRetries, err)
		}

		delay := o.policy.backoff(failures)
		o.observer.Counter(observability.MetricPollRetries).Add(ctx, 1)
		o.observer.Warn(ctx, "Transient batch API failure, retrying",
			observability.String(observability.AttrBatchID, batchID),
			observability.Int(observability.AttrPollRetry, failures+1),
			observability.Duration(observability.AttrPollDelay, delay),
			observability.Error(err),
		)

		if err := sleep(pollCtx, delay); err != nil {
			return o.stopError(ctx, pollCtx)
		}
	}
}

// stopError reports why polling must stop, or nil when it may continue.
// A canceled caller context yields its own error; any elapsed deadline
// yields ErrTimeout.
func (o *Orchestrator) stopError(ctx, pollCtx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return err
	}
	if err := pollCtx.Err(); err != nil {
		return fmt.Errorf("%w after %s", ErrTimeout, o.policy.Timeout)
	}
	return nil
}

// Resolve turns the results of a terminal job into one CalculationResult per
// submitted request, in submission order. Results are matched by id, never by
// position.
//
// Requests without a result get ErrMissingResult. Missing requests and
// results for ids that were never submitted are also reported through a
// *ResolveError, returned together with the complete slice.
func (o *Orchestrator) Resolve(ctx context.Context, job *BatchJob) ([]CalculationResult, error) {
	if job == nil {
		return nil, fmt.Errorf("%w: nil job", ErrInvalidInput)
	}
	if !job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: batch %s is %s, not terminal", ErrInvalidInput, job.ID, job.Status)
	}

	ctx = observability.ContextWithObserver(ctx, o.observer)
	ctx, span := o.observer.StartSpan(ctx, observability.SpanBatchResolve,
		observability.String(observability.AttrBatchID, job.ID),
		observability.Int(observability.AttrBatchRequestsCount, len(job.Requests)),
	)
	defer span.End()

	submitted := make(map[string]struct{}, len(job.Requests))
	for _, request := range job.Requests {
		submitted[request.ID] = struct{}{}
	}

	byID := make(map[string]*ai.BatchItemResult, len(job.results))
	var unexpected []string
	for i := range job.results {
		item := &job.results[i]
		if _, ok := submitted[item.CustomID]; !ok {
			unexpected = append(unexpected, item.CustomID)
			continue
		}
		if _, seen := byID[item.CustomID]; seen {
			o.observer.Warn(ctx, "Duplicate result ignored",
				observability.String(observability.AttrBatchID, job.ID),
				observability.String(observability.AttrRequestID, item.CustomID),
			)
			continue
		}
		byID[item.CustomID] = item
	}

	results := make([]CalculationResult, len(job.Requests))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.concurrency)
	for i, request := range job.Requests {
		i, request := i, request
		group.Go(func() error {
			results[i] = o.resolveItem(groupCtx, request, byID[request.ID])
			return nil
		})
	}
	// Workers report failures through their result slot only.
	_ = group.Wait()

	var missing []string
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
		if errors.Is(result.Err, ErrMissingResult) {
			missing = append(missing, result.RequestID)
		}
	}

	span.SetAttributes(
		observability.Int(observability.AttrBatchResultsCount, len(results)-failed),
		observability.Int(observability.AttrBatchErrored, failed),
	)

	if len(missing) > 0 || len(unexpected) > 0 {
		err := &ResolveError{Missing: missing, Unexpected: unexpected}
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "correlation mismatch")
		o.observer.Warn(ctx, "Batch results do not match the submission", observability.Error(err))
		return results, err
	}

	span.SetStatus(observability.StatusOK, "")
	return results, nil
}

// toolOutput is the shape every numeric tool returns.
type toolOutput struct {
	Result *float64 `json:"result"`
}

func (o *Orchestrator) resolveItem(ctx context.Context, request CalculationRequest, item *ai.BatchItemResult) CalculationResult {
	result := CalculationResult{RequestID: request.ID}
	shape := "none"

	switch {
	case item == nil:
		result.Err = ErrMissingResult
	case item.Type != ai.BatchItemSucceeded:
		result.Err = itemFailure(item)
	default:
		switch response := Classify(item.Message).(type) {
		case DirectAnswer:
			shape = "direct_answer"
			result.Value, result.Err = answerValue(response)
		case ToolInvocation:
			shape = "tool_invocation"
			result.Value, result.Err = o.invokeTool(ctx, response)
		}
	}

	outcome := outcomeOf(result.Err)
	attrs := []observability.Attribute{
		observability.String(observability.AttrRequestID, request.ID),
		observability.String(observability.AttrItemShape, shape),
		observability.String(observability.AttrItemOutcome, outcome),
	}
	o.observer.Counter(observability.MetricItemsResolved).Add(ctx, 1, observability.String(observability.AttrItemOutcome, outcome))
	if result.Err != nil {
		o.observer.Debug(ctx, "Item resolved with error", append(attrs, observability.Error(result.Err))...)
	} else {
		o.observer.Debug(ctx, "Item resolved", append(attrs, observability.Float64(observability.AttrItemValue, result.Value))...)
	}

	return result
}

func itemFailure(item *ai.BatchItemResult) error {
	if item.Error == nil || item.Error.Message == "" {
		return fmt.Errorf("%w: %s", ErrItemFailed, item.Type)
	}
	return fmt.Errorf("%w: %s: %s: %s", ErrItemFailed, item.Type, item.Error.Type, item.Error.Message)
}

func answerValue(answer DirectAnswer) (float64, error) {
	value, ok := parse.FirstNumber(answer.Text)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableAnswer, truncate(answer.Text, 80))
	}
	return value, nil
}

func (o *Orchestrator) invokeTool(ctx context.Context, invocation ToolInvocation) (float64, error) {
	ctx, span := o.observer.StartSpan(ctx, observability.SpanToolExecute,
		observability.String(observability.AttrToolName, invocation.ToolName),
	)
	defer span.End()

	output, err := o.tools.Call(ctx, invocation.ToolName, invocation.RawArguments)
	if err != nil {
		span.SetStatus(observability.StatusError, "tool failed")
		return 0, err
	}
	span.SetStatus(observability.StatusOK, "")

	decoded, err := parse.ParseStringAs[toolOutput](output)
	if err != nil || decoded.Result == nil {
		return 0, fmt.Errorf("%w: tool %s returned %s", ErrUnparsableAnswer, invocation.ToolName, truncate(output, 80))
	}
	return *decoded.Result, nil
}

// outcomeOf names the item outcome for metrics and logs.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingResult):
		return "missing_result"
	case errors.Is(err, ErrItemFailed):
		return "item_failed"
	case errors.Is(err, ErrUnparsableAnswer):
		return "unparsable_answer"
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrUnsupportedOperation):
		return "unsupported_operation"
	case errors.Is(err, ErrInvalidArguments):
		return "invalid_arguments"
	case errors.Is(err, ErrUnknownTool):
		return "unknown_tool"
	default:
		return "error"
	}
}

// Cancel asks the remote service to stop the batch. It is never called
// implicitly. The job keeps its status; a later Poll observes the end and
// collects whatever results were produced. Cancelling a terminal job is a
// no-op.
func (o *Orchestrator) Cancel(ctx context.Context, job *BatchJob) (*BatchJob, error) {
	if job == nil {
		return nil, fmt.Errorf("%w: nil job", ErrInvalidInput)
	}
	if job.Status.IsTerminal() {
		return job, nil
	}

	ctx = observability.ContextWithObserver(ctx, o.observer)
	ctx, span := o.observer.StartSpan(ctx, observability.SpanBatchCancel,
		observability.String(observability.AttrBatchID, job.ID),
	)
	defer span.End()

	remote, err := o.provider.CancelBatch(ctx, job.ID)
	if err != nil {
		err = fmt.Errorf("%w: cancel batch %s: %w", ErrRemoteService, job.ID, err)
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "cancel failed")
		return job, err
	}
	if remote != nil {
		job.observe(remote)
		span.SetAttributes(observability.String(observability.AttrBatchRemoteStatus, string(remote.ProcessingStatus)))
	}

	span.SetStatus(observability.StatusOK, "")
	o.observer.Info(ctx, "Batch cancellation requested", observability.String(observability.AttrBatchID, job.ID))
	return job, nil
}

func (o *Orchestrator) chatRequest(prompt string, tools []ai.ToolDescription) ai.ChatRequest {
	return ai.ChatRequest{
		Model:            o.model,
		SystemPrompt:     o.systemPrompt,
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: prompt}},
		Tools:            tools,
		ToolChoice:       o.toolChoice,
		GenerationConfig: &ai.GenerationConfig{MaxTokens: o.maxTokens, Temperature: o.temperature},
	}
}

func validateRequests(requests []CalculationRequest) error {
	if len(requests) == 0 {
		return fmt.Errorf("%w: no requests", ErrInvalidInput)
	}

	seen := make(map[string]int, len(requests))
	for i, request := range requests {
		switch {
		case request.ID == "":
			return fmt.Errorf("%w: request %d: empty id", ErrInvalidInput, i)
		case !customIDPattern.MatchString(request.ID):
			return fmt.Errorf("%w: request %d: id %q must match %s", ErrInvalidInput, i, request.ID, customIDPattern)
		case strings.TrimSpace(request.Prompt) == "":
			return fmt.Errorf("%w: request %d (%s): empty prompt", ErrInvalidInput, i, request.ID)
		}
		if first, dup := seen[request.ID]; dup {
			return fmt.Errorf("%w: request %d: id %q already used by request %d", ErrInvalidInput, i, request.ID, first)
		}
		seen[request.ID] = i
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
