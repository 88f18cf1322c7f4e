package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/leofalp/batchcalc/internal/utils"
	"github.com/leofalp/batchcalc/providers/ai"
)

const (
	// defaultBaseURL is the canonical base URL for Anthropic's API.
	defaultBaseURL = "https://api.anthropic.com/v1"

	// batchesEndpoint is the path of the Message Batches API.
	batchesEndpoint = "/messages/batches"

	// anthropicVersion is the required anthropic-version header value.
	anthropicVersion = "2023-06-01"

	// providerName is reported in spans and logs.
	providerName = "anthropic"
)

// ErrMissingAPIKey is returned by every call when no API key is configured.
var ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY is not set")

// AnthropicProvider implements [ai.BatchProvider] on Anthropic's Message
// Batches API. Use [New] to construct a ready-to-use instance.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter

	// resultsURLs remembers the results_url of ended batches seen by
	// RetrieveBatch, keyed by batch id.
	resultsURLs sync.Map
}

// Ensure AnthropicProvider implements ai.BatchProvider
var _ ai.BatchProvider = (*AnthropicProvider)(nil)

// New returns an [AnthropicProvider] initialized from environment variables.
// It reads ANTHROPIC_API_KEY for authentication and ANTHROPIC_API_BASE_URL for
// the endpoint base (defaulting to https://api.anthropic.com/v1 when unset).
func New() *AnthropicProvider {
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &AnthropicProvider{
		apiKey:  os.Getenv("ANTHROPIC_API_KEY"),
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key used for authenticating requests. It overrides
// the value read from ANTHROPIC_API_KEY.
func (p *AnthropicProvider) WithAPIKey(apiKey string) ai.BatchProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the API base URL, for proxies or test servers.
func (p *AnthropicProvider) WithBaseURL(baseURL string) ai.BatchProvider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

// WithHttpClient replaces the default [http.Client] used for API calls.
func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) ai.BatchProvider {
	p.client = httpClient
	return p
}

// WithRateLimiter makes every outbound request wait on limiter first. It
// returns *AnthropicProvider so it can be chained after New.
//
//	provider := anthropic.New().WithRateLimiter(rate.NewLimiter(rate.Limit(2), 1))
func (p *AnthropicProvider) WithRateLimiter(limiter *rate.Limiter) *AnthropicProvider {
	p.limiter = limiter
	return p
}

// buildHeaders returns the headers required on every request. Anthropic
// authenticates with x-api-key, not a Bearer token.
func (p *AnthropicProvider) buildHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "x-api-key", Value: p.apiKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}
}

// prepare checks credentials and waits for the rate limiter.
func (p *AnthropicProvider) prepare(ctx context.Context) error {
	if p.apiKey == "" {
		return ErrMissingAPIKey
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}
	return nil
}

func (p *AnthropicProvider) batchURL(batchID string, suffix ...string) string {
	url := p.baseURL + batchesEndpoint + "/" + batchID
	for _, s := range suffix {
		url += "/" + s
	}
	return url
}
