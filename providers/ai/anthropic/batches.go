package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/leofalp/batchcalc/internal/utils"
	"github.com/leofalp/batchcalc/providers/ai"
	"github.com/leofalp/batchcalc/providers/observability"
)

// CreateBatch implements [ai.BatchProvider] by POSTing all requests to
// /messages/batches in a single call.
func (p *AnthropicProvider) CreateBatch(ctx context.Context, requests []ai.BatchRequest) (*ai.Batch, error) {
	observer := observability.ObserverFromContext(ctx)
	endpoint := p.baseURL + batchesEndpoint

	body := batchCreateRequest{Requests: make([]batchRequestItem, 0, len(requests))}
	for _, request := range requests {
		params, err := requestToAnthropic(request.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to build params for %q: %w", request.CustomID, err)
		}
		body.Requests = append(body.Requests, batchRequestItem{CustomID: request.CustomID, Params: params})
	}

	if err := p.prepare(ctx); err != nil {
		return nil, err
	}

	if observer != nil {
		observer.Trace(ctx, "Anthropic provider creating batch",
			observability.String(observability.AttrBatchProvider, providerName),
			observability.String(observability.AttrLLMEndpoint, endpoint),
			observability.Int(observability.AttrBatchRequestsCount, len(requests)),
		)
	}

	return p.sendBatchRequest(ctx, func() (*messageBatch, error) {
		_, batch, err := utils.DoPostSync[messageBatch](ctx, p.client, endpoint, body, p.buildHeaders()...)
		return batch, err
	})
}

// RetrieveBatch implements [ai.BatchProvider] with GET /messages/batches/{id}.
func (p *AnthropicProvider) RetrieveBatch(ctx context.Context, batchID string) (*ai.Batch, error) {
	if err := p.prepare(ctx); err != nil {
		return nil, err
	}

	endpoint := p.batchURL(batchID)
	batch, err := p.sendBatchRequest(ctx, func() (*messageBatch, error) {
		_, batch, err := utils.DoGetSync[messageBatch](ctx, p.client, endpoint, p.buildHeaders()...)
		return batch, err
	})
	if err != nil {
		return nil, err
	}

	if batch.ResultsURL != "" {
		p.resultsURLs.Store(batch.ID, batch.ResultsURL)
	}
	return batch, nil
}

// CancelBatch implements [ai.BatchProvider] with POST
// /messages/batches/{id}/cancel.
func (p *AnthropicProvider) CancelBatch(ctx context.Context, batchID string) (*ai.Batch, error) {
	if err := p.prepare(ctx); err != nil {
		return nil, err
	}

	endpoint := p.batchURL(batchID, "cancel")
	return p.sendBatchRequest(ctx, func() (*messageBatch, error) {
		_, batch, err := utils.DoPostSync[messageBatch](ctx, p.client, endpoint, struct{}{}, p.buildHeaders()...)
		return batch, err
	})
}

// BatchResults implements [ai.BatchProvider] by streaming the JSONL results
// file. The URL is the results_url last seen by RetrieveBatch when it points
// at the configured base URL's host, otherwise /messages/batches/{id}/results.
// The API key is never sent to a host other than the base URL's.
//
// Lines are decoded independently: a malformed line is logged and skipped,
// so the affected request simply has no result.
func (p *AnthropicProvider) BatchResults(ctx context.Context, batchID string) ([]ai.BatchItemResult, error) {
	observer := observability.ObserverFromContext(ctx)

	if err := p.prepare(ctx); err != nil {
		return nil, err
	}

	res, err := utils.DoGetStream(ctx, p.client, p.resultsURL(batchID), p.buildHeaders()...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results of batch %s: %w", batchID, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	var results []ai.BatchItemResult
	scanner := utils.NewJSONLScanner(res.Body)
	for {
		record, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read results of batch %s: %w", batchID, err)
		}

		var line batchResultLine
		if err := json.Unmarshal(record, &line); err != nil || line.CustomID == "" {
			if observer != nil {
				observer.Warn(ctx, "Skipping malformed batch result line",
					observability.String(observability.AttrBatchID, batchID),
					observability.Int("line", scanner.Line()),
					observability.String("record", utils.TruncateString(string(record), utils.DefaultMaxStringLength)),
				)
			}
			continue
		}
		results = append(results, resultLineToGeneric(line))
	}

	if observer != nil {
		observer.Debug(ctx, "Anthropic batch results downloaded",
			observability.String(observability.AttrBatchID, batchID),
			observability.Int(observability.AttrBatchResultsCount, len(results)),
		)
	}

	return results, nil
}

// sendBatchRequest runs call and converts its batch object, recording the
// outcome on the span carried by ctx.
func (p *AnthropicProvider) sendBatchRequest(ctx context.Context, call func() (*messageBatch, error)) (*ai.Batch, error) {
	span := observability.SpanFromContext(ctx)

	batch, err := call()
	if err != nil {
		if span != nil {
			span.AddEvent("anthropic.request.failed",
				observability.Error(err),
				observability.Int(observability.AttrHTTPStatusCode, utils.StatusCode(err)),
			)
		}
		return nil, err
	}
	if batch == nil || batch.ID == "" {
		return nil, errors.New("empty batch object in Anthropic response")
	}

	result := batchToGeneric(*batch)
	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrBatchProvider, providerName),
			observability.String(observability.AttrBatchID, result.ID),
			observability.String(observability.AttrBatchRemoteStatus, string(result.ProcessingStatus)),
		)
	}
	return result, nil
}

// resultsURL returns the cached results_url of batchID when it shares the
// base URL's scheme and host, and the results endpoint otherwise.
func (p *AnthropicProvider) resultsURL(batchID string) string {
	fallback := p.batchURL(batchID, "results")

	cached, ok := p.resultsURLs.Load(batchID)
	if !ok {
		return fallback
	}
	candidate, err := url.Parse(cached.(string))
	if err != nil {
		return fallback
	}
	base, err := url.Parse(p.baseURL)
	if err != nil || !strings.EqualFold(candidate.Scheme, base.Scheme) || !strings.EqualFold(candidate.Host, base.Host) {
		return fallback
	}
	return candidate.String()
}
