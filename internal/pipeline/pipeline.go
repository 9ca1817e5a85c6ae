// Package pipeline composes the full analysis run: resolve the company,
// fetch market data, compute factors, generate the report, persist it.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"twstock-analyst/internal/agents"
	"twstock-analyst/internal/factors"
	"twstock-analyst/internal/logging"
	"twstock-analyst/internal/marketdata"
	"twstock-analyst/internal/models"
	"twstock-analyst/internal/resolver"
)

// Persister saves a finished report. Persistence failures are logged
// and never fail the run: the report already exists in memory and is
// returned to the caller regardless.
type Persister interface {
	Persist(ctx context.Context, report *models.AnalysisReport) error
}

// Analyzer wires the pipeline stages together.
type Analyzer struct {
	resolver   *resolver.Resolver
	gateway    marketdata.Gateway
	calculator *factors.Calculator
	reporter   *agents.Reporter
	persisters []Persister
	windowDays int
	logger     zerolog.Logger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithWindowDays sets the trailing market data window.
func WithWindowDays(days int) AnalyzerOption {
	return func(a *Analyzer) {
		if days > 0 {
			a.windowDays = days
		}
	}
}

// WithPersister appends a report persister.
func WithPersister(p Persister) AnalyzerOption {
	return func(a *Analyzer) { a.persisters = append(a.persisters, p) }
}

// NewAnalyzer creates the analysis pipeline.
func NewAnalyzer(
	res *resolver.Resolver,
	gateway marketdata.Gateway,
	calculator *factors.Calculator,
	reporter *agents.Reporter,
	logger zerolog.Logger,
	opts ...AnalyzerOption,
) *Analyzer {
	a := &Analyzer{
		resolver:   res,
		gateway:    gateway,
		calculator: calculator,
		reporter:   reporter,
		windowDays: 30,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes one analysis for a free-form company query. Resolution
// misses, unavailable market data, and a fully unreachable model all
// surface as typed errors; a report with unparsed stages is a success.
func (a *Analyzer) Run(ctx context.Context, query string) (*models.AnalysisReport, error) {
	resolution, err := a.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	logger := logging.WithSymbol(a.logger, resolution.Symbol)

	series, err := a.gateway.Fetch(ctx, resolution.Symbol, a.windowDays)
	if err != nil {
		return nil, err
	}

	factorSet := a.calculator.Compute(series)
	if factorSet == nil {
		logger.Info().Msg("No factor data, technical stage degrades to general analysis")
	}

	report, err := a.reporter.Generate(ctx, *resolution, series, factorSet)
	if err != nil {
		return nil, err
	}

	for _, p := range a.persisters {
		if err := p.Persist(ctx, report); err != nil {
			logger.Warn().Err(err).Msg("Failed to persist report")
		}
	}

	logger.Info().Str("company", resolution.Name).Msg("Analysis complete")
	return report, nil
}
