package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mark3labs/sage"
	"github.com/mark3labs/sage/config"
	"github.com/mark3labs/sage/llm"
	"github.com/mark3labs/sage/metrics"
	"github.com/mark3labs/sage/search"
	"github.com/mark3labs/sage/wiki"
)

// newController wires the live service clients into a sage.Controller.
func newController(cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (reportRunner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	completer := llm.New(llm.Config{
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Timeout:           cfg.LLM.Timeout,
	}, logger.Named("llm"))

	searcher, err := search.New(search.Config{
		Provider: cfg.Search.Provider,
		APIKey:   cfg.Search.APIKey,
		Timeout:  cfg.Search.Timeout,
	}, nil)
	if err != nil {
		return nil, err
	}

	encyclopedia := wiki.New(wiki.Config{
		Language: cfg.Wiki.Language,
		MaxChars: cfg.Wiki.MaxChars,
		Timeout:  cfg.Wiki.Timeout,
	}, nil)

	opts := []sage.Option{
		sage.WithLogger(logger),
		sage.WithRetryPolicy(cfg.Workflow.MaxRetries, cfg.Workflow.RetryWait),
		sage.WithSearchResults(cfg.Search.MaxResults),
		sage.WithInterviewErrorHandling(cfg.Workflow.ContinueOnInterviewError),
	}
	if reg != nil {
		opts = append(opts, sage.WithMetrics(metrics.New(reg)))
	}
	return sage.NewController(completer, searcher, encyclopedia, opts...), nil
}
