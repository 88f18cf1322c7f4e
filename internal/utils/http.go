package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/batchcalc/providers/observability"
)

// maxResponseBodySize caps how much of a synchronous response body is read
// into memory (10 MB).
const maxResponseBodySize int64 = 10 * 1024 * 1024

// HeaderOption is a single extra header applied to an outgoing request.
type HeaderOption struct {
	Key   string
	Value string
}

// HTTPError is returned for every non-2xx response. It keeps the status code
// so callers can decide whether a failure is worth retrying without matching
// on error strings.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: non-2xx status %d: %s", e.Method, e.URL, e.StatusCode, TruncateString(e.Body, DefaultMaxStringLength))
}

// IsTransientStatus reports whether an HTTP status code signals a temporary
// condition: rate limiting (429), server errors (500, 502, 503, 504) and
// Anthropic's overloaded status (529).
func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		529:
		return true
	default:
		return false
	}
}

// StatusCode extracts the HTTP status code carried by err, or 0 when err does
// not wrap an [HTTPError].
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// DoPostSync marshals body as JSON, POSTs it to url and decodes the response
// into OutputStruct.
//
// Error handling:
//   - context errors (timeout, cancellation) are wrapped and propagated
//   - non-2xx statuses return an [*HTTPError]
//   - decode failures include a preview of the response body
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, body any, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	res, err := doRequest(ctx, client, http.MethodPost, url, jsonBody, headers)
	if err != nil {
		return res, nil, err
	}
	return decodeResponse[OutputStruct](res, url)
}

// DoGetSync issues a GET to url and decodes the JSON response into OutputStruct.
func DoGetSync[OutputStruct any](ctx context.Context, client *http.Client, url string, headers ...HeaderOption) (*http.Response, *OutputStruct, error) {
	res, err := doRequest(ctx, client, http.MethodGet, url, nil, headers)
	if err != nil {
		return res, nil, err
	}
	return decodeResponse[OutputStruct](res, url)
}

// DoGetStream issues a GET to url and returns the response with its body left
// open, for incremental consumption with [JSONLScanner]. The caller must close
// the body. Non-2xx responses are drained, closed and returned as [*HTTPError].
func DoGetStream(ctx context.Context, client *http.Client, url string, headers ...HeaderOption) (*http.Response, error) {
	return doRequest(ctx, client, http.MethodGet, url, nil, headers)
}

// doRequest sends the request and checks the status code. On success the
// body is left open for the caller; on failure it is always closed.
func doRequest(ctx context.Context, client *http.Client, method, url string, body []byte, headers []HeaderOption) (*http.Response, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, method),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(body)),
		)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	res, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration(observability.AttrDuration, requestDuration),
			)
		}
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Duration(observability.AttrDuration, requestDuration),
		)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer closeBody(res.Body, url)
		respBody, _ := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
		return res, &HTTPError{
			Method:     method,
			URL:        url,
			StatusCode: res.StatusCode,
			Body:       string(respBody),
		}
	}

	return res, nil
}

func decodeResponse[OutputStruct any](res *http.Response, url string) (*http.Response, *OutputStruct, error) {
	defer closeBody(res.Body, url)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return res, nil, nil
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), DefaultMaxStringLength))
	}

	return res, &resStruct, nil
}

// closeBody logs close failures without overriding the caller's error.
func closeBody(body io.ReadCloser, url string) {
	if closeErr := body.Close(); closeErr != nil {
		slog.Warn("failed to close response body", "error", closeErr.Error(), "url", url)
	}
}
