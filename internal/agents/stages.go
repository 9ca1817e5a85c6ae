package agents

import (
	"fmt"
)

// Stage payload schemas. Each report stage instructs the model to return
// exactly one of these shapes; validation requires every field non-empty.

// MarketAnalysis is the market-data stage payload.
type MarketAnalysis struct {
	TrendAnalysis        string `json:"trend_analysis"`
	VolumeAnalysis       string `json:"volume_analysis"`
	VolatilityAssessment string `json:"volatility_assessment"`
	TechnicalInsights    string `json:"technical_insights"`
	InvestmentSuggestion string `json:"investment_suggestion"`
}

func (m *MarketAnalysis) Validate() error {
	return requireFields(map[string]string{
		"trend_analysis":        m.TrendAnalysis,
		"volume_analysis":       m.VolumeAnalysis,
		"volatility_assessment": m.VolatilityAssessment,
		"technical_insights":    m.TechnicalInsights,
		"investment_suggestion": m.InvestmentSuggestion,
	})
}

// TechnicalAnalysis is the factor-based technical stage payload.
type TechnicalAnalysis struct {
	MomentumAnalysis       string `json:"momentum_analysis"`
	VolatilityAssessment   string `json:"volatility_assessment"`
	SignalInterpretation   string `json:"signal_interpretation"`
	TradingPointSuggestion string `json:"trading_point_suggestion"`
}

func (t *TechnicalAnalysis) Validate() error {
	return requireFields(map[string]string{
		"momentum_analysis":        t.MomentumAnalysis,
		"volatility_assessment":    t.VolatilityAssessment,
		"signal_interpretation":    t.SignalInterpretation,
		"trading_point_suggestion": t.TradingPointSuggestion,
	})
}

// GeneralAnalysis is the reduced technical stage payload, used when no
// factor data is available.
type GeneralAnalysis struct {
	GeneralAnalysis string `json:"general_analysis"`
}

func (g *GeneralAnalysis) Validate() error {
	return requireFields(map[string]string{
		"general_analysis": g.GeneralAnalysis,
	})
}

// RiskAssessment is the risk stage payload.
type RiskAssessment struct {
	OverallRiskLevel      string   `json:"overall_risk_level"`
	MainRiskFactors       []string `json:"main_risk_factors"`
	MitigationSuggestions string   `json:"mitigation_suggestions"`
	StopLossSuggestion    string   `json:"stop_loss_suggestion"`
}

func (r *RiskAssessment) Validate() error {
	if len(r.MainRiskFactors) == 0 {
		return fmt.Errorf("missing field main_risk_factors")
	}
	return requireFields(map[string]string{
		"overall_risk_level":     r.OverallRiskLevel,
		"mitigation_suggestions": r.MitigationSuggestions,
		"stop_loss_suggestion":   r.StopLossSuggestion,
	})
}

// Recommendation is the investment recommendation stage payload.
type Recommendation struct {
	Rating                string `json:"rating"`
	TargetPrice           string `json:"target_price"`
	TimelineSuggestion    string `json:"timeline_suggestion"`
	PositioningSuggestion string `json:"positioning_suggestion"`
}

// ratingVocabulary is the closed set of acceptable ratings. Traditional
// and simplified forms are both accepted since models mix the two.
var ratingVocabulary = map[string]struct{}{
	"買入": {}, "买入": {},
	"持有": {},
	"賣出": {}, "卖出": {},
}

func (r *Recommendation) Validate() error {
	if err := requireFields(map[string]string{
		"rating":                 r.Rating,
		"target_price":           r.TargetPrice,
		"timeline_suggestion":    r.TimelineSuggestion,
		"positioning_suggestion": r.PositioningSuggestion,
	}); err != nil {
		return err
	}
	if _, ok := ratingVocabulary[r.Rating]; !ok {
		return fmt.Errorf("rating %q not in allowed vocabulary", r.Rating)
	}
	return nil
}

func requireFields(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("missing field %s", name)
		}
	}
	return nil
}
