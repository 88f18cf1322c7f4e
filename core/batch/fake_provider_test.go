package batch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/leofalp/batchcalc/providers/ai"
)

// step is one scripted RetrieveBatch outcome.
type step struct {
	status ai.BatchProcessingStatus
	err    error
}

// fakeProvider is a scripted in-memory BatchProvider that counts calls.
type fakeProvider struct {
	mu sync.Mutex

	createErr  error
	steps      []step // consumed by RetrieveBatch; the last one repeats
	answer     func(ai.BatchRequest) ai.BatchItemResult
	results    []ai.BatchItemResult // returned verbatim when set
	resultsErr []error              // consumed by BatchResults before succeeding
	cancelErr  error

	submitted []ai.BatchRequest
	creates   int
	retrieves int
	downloads int
	cancels   int
}

func (f *fakeProvider) CreateBatch(_ context.Context, requests []ai.BatchRequest) (*ai.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.submitted = append([]ai.BatchRequest(nil), requests...)
	return &ai.Batch{
		ID:               "msgbatch_test",
		ProcessingStatus: ai.BatchStatusInProgress,
		RequestCounts:    ai.BatchRequestCounts{Processing: len(requests)},
		CreatedAt:        time.Now(),
	}, nil
}

func (f *fakeProvider) RetrieveBatch(_ context.Context, batchID string) (*ai.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieves++

	current := step{status: ai.BatchStatusEnded}
	if len(f.steps) > 0 {
		current = f.steps[min(f.retrieves-1, len(f.steps)-1)]
	}
	if current.err != nil {
		return nil, current.err
	}

	batch := &ai.Batch{ID: batchID, ProcessingStatus: current.status}
	if current.status == ai.BatchStatusEnded {
		ended := time.Now()
		batch.EndedAt = &ended
		batch.RequestCounts.Succeeded = len(f.submitted)
	} else {
		batch.RequestCounts.Processing = len(f.submitted)
	}
	return batch, nil
}

func (f *fakeProvider) BatchResults(_ context.Context, _ string) ([]ai.BatchItemResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++

	if len(f.resultsErr) > 0 {
		err := f.resultsErr[0]
		f.resultsErr = f.resultsErr[1:]
		return nil, err
	}
	if f.results != nil {
		return f.results, nil
	}

	results := make([]ai.BatchItemResult, 0, len(f.submitted))
	for _, request := range f.submitted {
		results = append(results, f.answer(request))
	}
	return results, nil
}

func (f *fakeProvider) CancelBatch(_ context.Context, batchID string) (*ai.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &ai.Batch{ID: batchID, ProcessingStatus: ai.BatchStatusCanceling}, nil
}

func (f *fakeProvider) WithAPIKey(string) ai.BatchProvider          { return f }
func (f *fakeProvider) WithBaseURL(string) ai.BatchProvider         { return f }
func (f *fakeProvider) WithHttpClient(*http.Client) ai.BatchProvider { return f }

func (f *fakeProvider) calls() (creates, retrieves, downloads, cancels int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.retrieves, f.downloads, f.cancels
}

func toolResult(id, operation string, a, b float64) ai.BatchItemResult {
	return ai.BatchItemResult{
		CustomID: id,
		Type:     ai.BatchItemSucceeded,
		Message: &ai.ChatResponse{
			Id:           "msg_" + id,
			FinishReason: "tool_calls",
			ToolCalls: []ai.ToolCall{{
				ID:   "toolu_" + id,
				Type: "function",
				Function: ai.ToolCallFunction{
					Name:      "calculator",
					Arguments: fmt.Sprintf(`{"operation":%q,"a":%v,"b":%v}`, operation, a, b),
				},
			}},
		},
	}
}

func textResult(id, text string) ai.BatchItemResult {
	return ai.BatchItemResult{
		CustomID: id,
		Type:     ai.BatchItemSucceeded,
		Message:  &ai.ChatResponse{Id: "msg_" + id, Content: text, FinishReason: "stop"},
	}
}

func erroredResult(id, errType, message string) ai.BatchItemResult {
	return ai.BatchItemResult{
		CustomID: id,
		Type:     ai.BatchItemErrored,
		Error:    &ai.BatchItemError{Type: errType, Message: message},
	}
}

func fastPolicy() PollPolicy {
	return PollPolicy{
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      2 * time.Millisecond,
	}
}
