// Package resolver implements the two-tier company lookup: exact
// catalog matching with a model-assisted fallback.
package resolver

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"twstock-analyst/internal/agents"
	"twstock-analyst/internal/catalog"
	"twstock-analyst/internal/errors"
	"twstock-analyst/internal/logging"
	"twstock-analyst/internal/models"
)

// noMatchSentinel is the literal the fallback prompt requires the model
// to return when no company matches.
const noMatchSentinel = "NULL"

// Resolver resolves free-form company queries to catalog records.
type Resolver struct {
	dir         *catalog.Directory
	llm         agents.LLMClient
	promptLimit int
	logger      zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPromptLimit caps how many catalog entries the fallback prompt
// carries. The cutoff is a fixed prefix of the symbol-sorted catalog,
// which is a known precision limitation for companies beyond it.
func WithPromptLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.promptLimit = n
		}
	}
}

// New creates a Resolver. A nil model client disables the fallback tier.
func New(dir *catalog.Directory, llm agents.LLMClient, logger zerolog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		dir:         dir,
		llm:         llm,
		promptLimit: 500,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs both lookup tiers, short-circuiting on the first hit.
// A miss returns ErrCompanyNotFound; resolution failure is a normal,
// reportable outcome and model transport errors during the fallback are
// deliberately folded into it rather than propagated.
func (r *Resolver) Resolve(ctx context.Context, query string) (*models.Resolution, error) {
	return r.resolve(ctx, query, true)
}

// ResolveExact runs only the exact tier. It never touches the model.
func (r *Resolver) ResolveExact(query string) (*models.Resolution, error) {
	return r.exactLookup(query)
}

func (r *Resolver) exactLookup(query string) (*models.Resolution, error) {
	if rec, ok := r.dir.Lookup(query); ok {
		logging.LogResolution(r.logger, query, rec.Symbol, "exact")
		return &models.Resolution{Symbol: rec.Symbol, Name: rec.Name}, nil
	}
	return nil, errors.Wrapf(errors.ErrCompanyNotFound, "query %q", query)
}

func (r *Resolver) resolve(ctx context.Context, query string, allowFallback bool) (*models.Resolution, error) {
	if res, err := r.exactLookup(query); err == nil {
		return res, nil
	}

	if !allowFallback || r.llm == nil {
		return nil, errors.Wrapf(errors.ErrCompanyNotFound, "query %q", query)
	}

	answer, err := r.llm.Answer(ctx, r.fallbackPrompt(query))
	if err != nil {
		// A transport failure during fallback is a tier-2 miss, never a
		// hard failure of the resolution itself.
		r.logger.Warn().Err(err).Str("query", query).Msg("Fallback model call failed")
		return nil, errors.Wrapf(errors.ErrCompanyNotFound, "query %q", query)
	}

	candidate := strings.TrimSpace(answer.Content)
	if candidate == "" || strings.EqualFold(candidate, noMatchSentinel) {
		return nil, errors.Wrapf(errors.ErrCompanyNotFound, "query %q", query)
	}

	// The model's free-text answer is never authoritative: re-verify it
	// as an exact symbol against the full catalog.
	if rec, ok := r.dir.LookupSymbol(candidate); ok {
		logging.LogResolution(r.logger, query, rec.Symbol, "fallback")
		return &models.Resolution{Symbol: rec.Symbol, Name: rec.Name}, nil
	}

	r.logger.Debug().Str("query", query).Str("candidate", candidate).Msg("Fallback answer not in catalog")
	return nil, errors.Wrapf(errors.ErrCompanyNotFound, "query %q", query)
}
