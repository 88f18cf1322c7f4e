// Command batchcalc answers arithmetic questions through one Anthropic
// Message Batch, running the calculator tool locally.
//
//	batchcalc [-file prompts.yaml] [-timeout 30m] [-model name] [-temperature t] [-force-tool] [-uuid-ids] [-metrics] [prompt ...]
//
// Without prompts or a file it submits three demo questions. Settings are
// read from the environment and an optional .env file; see internal/config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"golang.org/x/time/rate"

	"github.com/leofalp/batchcalc/core/batch"
	"github.com/leofalp/batchcalc/internal/config"
	"github.com/leofalp/batchcalc/providers/ai"
	"github.com/leofalp/batchcalc/providers/ai/anthropic"
	"github.com/leofalp/batchcalc/providers/observability/promobs"
	"github.com/leofalp/batchcalc/providers/observability/slogobs"
	"github.com/leofalp/batchcalc/providers/tool/calculator"
)

const defaultTimeout = 30 * time.Minute

var demoPrompts = []string{
	"What is 25 + 17?",
	"What is 100 ÷ 4?",
	"What is 13 × 7?",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("batchcalc", flag.ContinueOnError)
	flags.SetOutput(stderr)
	file := flags.String("file", "", "YAML file with the prompts to submit")
	timeout := flags.Duration("timeout", 0, "maximum time to wait for the batch to end (default "+config.EnvPollTimeout+" or "+defaultTimeout.String()+")")
	model := flags.String("model", "", "model used for every request (default "+config.EnvModel+" or "+batch.DefaultModel+")")
	temperature := flags.Float64("temperature", -1, "sampling temperature in [0, 1]; negative keeps the API default")
	forceTool := flags.Bool("force-tool", false, "require the model to answer through the calculator tool")
	uuidIDs := flags.Bool("uuid-ids", false, "generate UUID-based request ids")
	printMetrics := flags.Bool("metrics", false, "write Prometheus metrics to stderr when done")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "batchcalc: %v\n", err)
		return 1
	}

	requests, err := buildRequests(flags.Args(), *file, *uuidIDs)
	if err != nil {
		fmt.Fprintf(stderr, "batchcalc: %v\n", err)
		return 1
	}

	registry := prometheus.NewRegistry()
	observer := slogobs.New(
		slogobs.WithOutput(stderr),
		slogobs.WithMetrics(promobs.New(registry)),
	)

	provider := anthropic.New()
	provider.WithAPIKey(cfg.APIKey)
	if cfg.BaseURL != "" {
		provider.WithBaseURL(cfg.BaseURL)
	}
	if cfg.RequestsPerSecond > 0 {
		provider.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1))
	}

	opts := []batch.Option{
		batch.WithModel(stringOr(*model, stringOr(cfg.Model, batch.DefaultModel))),
		batch.WithMaxTokens(cfg.MaxTokens),
		batch.WithObserver(observer),
		batch.WithPollPolicy(batch.PollPolicy{
			InitialInterval: cfg.PollInterval,
			Timeout:         durationOr(*timeout, durationOr(cfg.PollTimeout, defaultTimeout)),
		}),
	}
	if *temperature >= 0 {
		opts = append(opts, batch.WithTemperature(*temperature))
	}
	if *forceTool {
		opts = append(opts, batch.WithToolChoice(ai.ToolChoice{Mode: "tool", Name: calculator.Name}))
	}
	orchestrator := batch.New(provider, opts...)

	fmt.Fprintf(stdout, "Submitting %d calculation(s) as one batch...\n", len(requests))
	results, err := orchestrator.Run(ctx, requests)

	var resolveErr *batch.ResolveError
	if err != nil && !errors.As(err, &resolveErr) {
		fmt.Fprintf(stderr, "batchcalc: %v\n", err)
		return 1
	}

	printResults(stdout, results)
	if resolveErr != nil {
		fmt.Fprintf(stderr, "batchcalc: warning: %v\n", resolveErr)
	}

	if *printMetrics {
		if err := writeMetrics(stderr, registry); err != nil {
			fmt.Fprintf(stderr, "batchcalc: write metrics: %v\n", err)
		}
	}
	return 0
}

// buildRequests picks the prompt source: positional arguments, then the
// prompt file, then the demo questions.
func buildRequests(args []string, file string, uuidIDs bool) ([]batch.CalculationRequest, error) {
	var prompts []config.Prompt
	switch {
	case len(args) > 0:
		for _, arg := range args {
			prompts = append(prompts, config.Prompt{Prompt: arg})
		}
	case file != "":
		loaded, err := config.LoadPrompts(file)
		if err != nil {
			return nil, err
		}
		prompts = loaded
	default:
		for _, prompt := range demoPrompts {
			prompts = append(prompts, config.Prompt{Prompt: prompt})
		}
	}

	requests := make([]batch.CalculationRequest, len(prompts))
	for i, prompt := range prompts {
		id := prompt.ID
		switch {
		case id != "":
		case uuidIDs:
			id = "calc_" + uuid.NewString()
		default:
			id = "calculation_" + strconv.Itoa(i)
		}
		requests[i] = batch.CalculationRequest{ID: id, Prompt: prompt.Prompt}
	}
	return requests, nil
}

func printResults(w io.Writer, results []batch.CalculationResult) {
	for _, result := range results {
		if result.Err != nil {
			fmt.Fprintf(w, "%s: error: %v\n", result.RequestID, result.Err)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", result.RequestID, strconv.FormatFloat(result.Value, 'f', -1, 64))
	}
}

func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	encoder := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return err
		}
	}
	return nil
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

func stringOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
