// Package models provides domain models for the stock analysis application.
package models

import (
	"encoding/json"
	"time"
)

// Stage identifies one step of the report pipeline.
type Stage string

const (
	StageMarketAnalysis           Stage = "market_analysis"
	StageTechnicalAnalysis        Stage = "technical_analysis"
	StageRiskAssessment           Stage = "risk_assessment"
	StageInvestmentRecommendation Stage = "investment_recommendation"
)

// Stages lists the report stages in pipeline order.
func Stages() []Stage {
	return []Stage{
		StageMarketAnalysis,
		StageTechnicalAnalysis,
		StageRiskAssessment,
		StageInvestmentRecommendation,
	}
}

// StageResult is the tagged outcome of one report stage: either a payload
// that validated against the stage schema, or the raw model text with the
// reason it could not be parsed. Both variants are retained in the report;
// an unparsed stage is never fatal at the pipeline level.
type StageResult struct {
	Stage  Stage           `json:"-"`
	Parsed json.RawMessage `json:"-"`
	Raw    string          `json:"-"`
	Reason string          `json:"-"`
}

// ParsedStage builds a StageResult for a payload that passed validation.
func ParsedStage(stage Stage, payload json.RawMessage) StageResult {
	return StageResult{Stage: stage, Parsed: payload}
}

// UnparsedStage builds a StageResult for model text that failed validation.
func UnparsedStage(stage Stage, raw, reason string) StageResult {
	return StageResult{Stage: stage, Raw: raw, Reason: reason}
}

// IsParsed reports whether the stage produced a schema-conforming payload.
func (r StageResult) IsParsed() bool {
	return r.Parsed != nil
}

// MarshalJSON renders the parsed payload directly, or an error envelope
// carrying the raw model text when parsing failed.
func (r StageResult) MarshalJSON() ([]byte, error) {
	if r.IsParsed() {
		return r.Parsed, nil
	}
	return json.Marshal(map[string]string{
		"error":       r.Reason,
		"raw_content": r.Raw,
	})
}

// UnmarshalJSON restores a StageResult from its rendered form. A payload
// carrying exactly the error envelope keys is treated as unparsed.
func (r *StageResult) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Error      *string `json:"error"`
		RawContent *string `json:"raw_content"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil &&
		envelope.Error != nil && envelope.RawContent != nil {
		r.Reason = *envelope.Error
		r.Raw = *envelope.RawContent
		r.Parsed = nil
		return nil
	}
	r.Parsed = append(json.RawMessage(nil), data...)
	return nil
}

// AnalysisReport is the aggregate output of one analysis run.
// It is immutable once constructed; persistence is the caller's concern.
type AnalysisReport struct {
	Timestamp                time.Time   `json:"timestamp"`
	Symbol                   string      `json:"stock"`
	Company                  string      `json:"company"`
	Model                    string      `json:"model"`
	MarketAnalysis           StageResult `json:"market_analysis"`
	TechnicalAnalysis        StageResult `json:"technical_analysis"`
	RiskAssessment           StageResult `json:"risk_assessment"`
	InvestmentRecommendation StageResult `json:"investment_recommendation"`
	AnalysisMethod           string      `json:"analysis_method"`
}

// StageResults returns the four stage results in pipeline order. The
// stage tag is not serialized, so it is restamped here for reports that
// were decoded from JSON.
func (r *AnalysisReport) StageResults() []StageResult {
	results := []StageResult{
		r.MarketAnalysis,
		r.TechnicalAnalysis,
		r.RiskAssessment,
		r.InvestmentRecommendation,
	}
	for i, stage := range Stages() {
		results[i].Stage = stage
	}
	return results
}

// SetStage stores a stage result into its slot.
func (r *AnalysisReport) SetStage(result StageResult) {
	switch result.Stage {
	case StageMarketAnalysis:
		r.MarketAnalysis = result
	case StageTechnicalAnalysis:
		r.TechnicalAnalysis = result
	case StageRiskAssessment:
		r.RiskAssessment = result
	case StageInvestmentRecommendation:
		r.InvestmentRecommendation = result
	}
}
