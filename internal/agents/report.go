package agents

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"twstock-analyst/internal/errors"
	"twstock-analyst/internal/logging"
	"twstock-analyst/internal/models"
)

// factorTailPeriods is how many factor rows the technical stage feeds
// to the model.
const factorTailPeriods = 5

// analysisMethod labels every report produced by this pipeline.
const analysisMethod = "AI-powered quantitative analysis"

// Reporter drives the four-stage report state machine: market analysis,
// technical analysis, risk assessment, investment recommendation. Stages
// run strictly in order and each blocks on its model call; they share the
// input data but no stage's output feeds the next stage's prompt.
type Reporter struct {
	llm    LLMClient
	logger zerolog.Logger
}

// NewReporter creates a report generator on top of a model client.
func NewReporter(llm LLMClient, logger zerolog.Logger) *Reporter {
	return &Reporter{llm: llm, logger: logger}
}

// Generate runs all four stages and assembles the report. A stage whose
// response cannot be parsed is recorded as Unparsed and never aborts the
// pipeline; partial reports are a valid terminal state. The only failure
// mode is the model being unreachable on every stage, in which case no
// raw text exists to report at all.
func (r *Reporter) Generate(
	ctx context.Context,
	resolution models.Resolution,
	series *models.MarketSeries,
	factors *models.FactorSet,
) (*models.AnalysisReport, error) {
	summary, err := SummarizeSeries(series)
	if err != nil {
		return nil, err
	}

	report := &models.AnalysisReport{
		Timestamp:      time.Now(),
		Symbol:         resolution.Symbol,
		Company:        resolution.Name,
		Model:          r.llm.Model(),
		AnalysisMethod: analysisMethod,
	}

	transportFailures := 0
	run := func(stage models.Stage, prompt string, schema stagePayload) {
		result, reachable := r.runStage(ctx, stage, prompt, schema)
		if !reachable {
			transportFailures++
		}
		report.SetStage(result)
	}

	run(models.StageMarketAnalysis,
		marketAnalysisPrompt(resolution.Name, resolution.Symbol, summary),
		&MarketAnalysis{})

	// No factor data downgrades the technical stage to the reduced
	// company-context prompt instead of failing the pipeline.
	if factors != nil && len(factors.Rows) > 0 {
		run(models.StageTechnicalAnalysis,
			technicalAnalysisPrompt(resolution.Name, resolution.Symbol, factors.Tail(factorTailPeriods)),
			&TechnicalAnalysis{})
	} else {
		run(models.StageTechnicalAnalysis,
			generalAnalysisPrompt(resolution.Name, resolution.Symbol),
			&GeneralAnalysis{})
	}

	run(models.StageRiskAssessment,
		riskAssessmentPrompt(resolution.Name, resolution.Symbol, summary),
		&RiskAssessment{})

	run(models.StageInvestmentRecommendation,
		recommendationPrompt(resolution.Name, resolution.Symbol, summary),
		&Recommendation{})

	if transportFailures == len(models.Stages()) {
		return nil, errors.NewModelError("report generation", errors.ErrModelUnreachable)
	}

	return report, nil
}

// runStage executes one stage: prompt, model call, parse. The returned
// bool reports whether the model was reachable; an unreachable model
// degrades the stage to Unparsed rather than failing the run.
func (r *Reporter) runStage(ctx context.Context, stage models.Stage, prompt string, schema stagePayload) (models.StageResult, bool) {
	start := time.Now()
	logger := logging.WithStage(r.logger, string(stage))

	answer, err := r.llm.Answer(ctx, prompt)
	if err != nil {
		logger.Warn().Err(err).Msg("Model call failed")
		return models.UnparsedStage(stage, "", "model unreachable"), false
	}

	payload, err := parseStagePayload(answer.Content, schema)
	if err != nil {
		logger.Warn().Err(err).Msg("Stage response is not valid structured output")
		logging.LogStage(logger, string(stage), false, time.Since(start))
		return models.UnparsedStage(stage, answer.Content, "invalid structure"), true
	}

	logging.LogStage(logger, string(stage), true, time.Since(start))
	return models.ParsedStage(stage, payload), true
}
