// Package bioflow provides a top-level convenience entry point for
// assembling the research pipeline with the production stack: an
// Anthropic inference client behind retries, the three evidence
// adapters behind rate limiting, and the orchestration engine.
//
// Usage:
//
//	import "github.com/BaSui01/bioflow"
//
//	cfg, _ := config.Load("")
//	eng, clarifier := bioflow.New(cfg, logger, bioflow.WithMetrics(collector))
//	result, err := eng.RunSync(ctx, engine.Request{Topic: "KRAS G12C"})
//
// Callers who need custom adapters or a different inference client
// should use [engine.New] directly.
package bioflow

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/bioflow/config"
	"github.com/BaSui01/bioflow/engine"
	"github.com/BaSui01/bioflow/evidence"
	"github.com/BaSui01/bioflow/internal/metrics"
	"github.com/BaSui01/bioflow/llm"
)

// Option configures the assembled engine.
type Option = engine.Option

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option { return engine.WithMetrics(c) }

// New assembles a production Engine and Clarifier from config.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*engine.Engine, *engine.Clarifier) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := llm.NewRetryClient(
		llm.NewAnthropicClient(cfg.LLM, logger),
		cfg.LLM.MaxRetries,
		logger,
	)
	opts = append([]Option{
		engine.WithLogger(logger),
		engine.WithCompletion(cfg.LLM.Temperature, cfg.LLM.MaxTokens),
	}, opts...)
	eng := engine.New(client, Adapters(cfg.Evidence, logger), cfg.Pipeline, opts...)
	return eng, engine.NewClarifier(client, logger)
}

// Adapters builds the production evidence adapters: ClinicalTrials.gov,
// PubMed, and Europe PMC, each wrapped with the configured retry and
// rate-limit policy.
func Adapters(cfg config.EvidenceConfig, logger *zap.Logger) []evidence.Adapter {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	policy := evidence.RetryPolicy{
		Timeout:       cfg.Timeout,
		MaxRetries:    cfg.MaxRetries,
		RatePerSecond: cfg.RatePerSecond,
	}
	return []evidence.Adapter{
		evidence.NewRetryAdapter(
			evidence.NewClinicalTrialsAdapter(httpClient, cfg.MaxItems, logger), policy, logger),
		evidence.NewRetryAdapter(
			evidence.NewPubMedAdapter(httpClient, cfg.PubMedAPIKey, cfg.MaxItems, logger), policy, logger),
		evidence.NewRetryAdapter(
			evidence.NewEuropePMCAdapter(httpClient, cfg.MaxItems, logger), policy, logger),
	}
}
