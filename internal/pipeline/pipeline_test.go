package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"twstock-analyst/internal/agents"
	"twstock-analyst/internal/catalog"
	"twstock-analyst/internal/errors"
	"twstock-analyst/internal/factors"
	"twstock-analyst/internal/models"
	"twstock-analyst/internal/resolver"
)

// fakeGateway serves a fixed series for one symbol.
type fakeGateway struct {
	symbol string
	series *models.MarketSeries
	err    error
}

func (g *fakeGateway) Fetch(_ context.Context, symbol string, _ int) (*models.MarketSeries, error) {
	if g.err != nil {
		return nil, g.err
	}
	if symbol != g.symbol {
		return nil, errors.NewDataError(symbol, "unknown symbol", nil)
	}
	return g.series, nil
}

// stageLLM answers every stage prompt with valid JSON for its schema.
type stageLLM struct{ calls int }

func (s *stageLLM) Answer(_ context.Context, prompt string) (*agents.Answer, error) {
	s.calls++
	var content string
	switch {
	case strings.Contains(prompt, "市場數據"):
		content = `{"trend_analysis": "上升", "volume_analysis": "放量", "volatility_assessment": "中等", "technical_insights": "突破", "investment_suggestion": "觀望"}`
	case strings.Contains(prompt, "技術因子"):
		content = `{"momentum_analysis": "強", "volatility_assessment": "低", "signal_interpretation": "多頭", "trading_point_suggestion": "回檔買入"}`
	case strings.Contains(prompt, "一般性技術分析"):
		content = `{"general_analysis": "產業龍頭"}`
	case strings.Contains(prompt, "風險評估"):
		content = `{"overall_risk_level": "中", "main_risk_factors": ["景氣循環"], "mitigation_suggestions": "分批", "stop_loss_suggestion": "-8%"}`
	default:
		content = `{"rating": "買入", "target_price": "650", "timeline_suggestion": "6-12個月", "positioning_suggestion": "20%"}`
	}
	return &agents.Answer{Content: content, ModelUsed: "test-model"}, nil
}

func (s *stageLLM) Model() string { return "test-model" }

// memoryPersister records persisted reports.
type memoryPersister struct {
	reports []*models.AnalysisReport
	err     error
}

func (p *memoryPersister) Persist(_ context.Context, report *models.AnalysisReport) error {
	if p.err != nil {
		return p.err
	}
	p.reports = append(p.reports, report)
	return nil
}

func testSeries(n int) *models.MarketSeries {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Date: base.AddDate(0, 0, i), Open: 500, High: 505, Low: 495,
			Close: 500 + float64(i), Volume: 1000,
		}
	}
	return &models.MarketSeries{Symbol: "2330.TW", Candles: candles}
}

func newTestAnalyzer(t *testing.T, gateway *fakeGateway, opts ...AnalyzerOption) (*Analyzer, *stageLLM) {
	t.Helper()
	dir, err := catalog.New([]models.CompanyRecord{
		{Symbol: "2330.TW", Name: "台積電", Aliases: []string{"tsmc"}},
	})
	if err != nil {
		t.Fatalf("Failed to build directory: %v", err)
	}

	llm := &stageLLM{}
	res := resolver.New(dir, llm, zerolog.Nop())
	calc := factors.NewCalculator(zerolog.Nop())
	reporter := agents.NewReporter(llm, zerolog.Nop())
	return NewAnalyzer(res, gateway, calc, reporter, zerolog.Nop(), opts...), llm
}

func TestRunEndToEnd(t *testing.T) {
	gateway := &fakeGateway{symbol: "2330.TW", series: testSeries(30)}
	persister := &memoryPersister{}
	analyzer, _ := newTestAnalyzer(t, gateway, WithPersister(persister))

	report, err := analyzer.Run(context.Background(), "tsmc")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Symbol != "2330.TW" || report.Company != "台積電" {
		t.Errorf("Report identity wrong: %+v", report)
	}
	for _, result := range report.StageResults() {
		if !result.IsParsed() {
			t.Errorf("Stage %s unparsed: %s", result.Stage, result.Reason)
		}
	}
	if len(persister.reports) != 1 {
		t.Errorf("Expected 1 persisted report, got %d", len(persister.reports))
	}
}

func TestRunUnknownCompany(t *testing.T) {
	gateway := &fakeGateway{symbol: "2330.TW", series: testSeries(30)}
	analyzer, _ := newTestAnalyzer(t, gateway)

	_, err := analyzer.Run(context.Background(), "完全不存在的公司")
	if !errors.Is(err, errors.ErrCompanyNotFound) {
		t.Fatalf("Expected ErrCompanyNotFound, got %v", err)
	}
}

func TestRunDataUnavailable(t *testing.T) {
	gateway := &fakeGateway{err: errors.NewDataError("2330.TW", "gateway down", nil)}
	analyzer, _ := newTestAnalyzer(t, gateway)

	_, err := analyzer.Run(context.Background(), "tsmc")
	if !errors.Is(err, errors.ErrDataUnavailable) {
		t.Fatalf("Expected ErrDataUnavailable, got %v", err)
	}
}

func TestRunShortSeriesDegradesToGeneralAnalysis(t *testing.T) {
	// 5 rows is enough for the summary but not for the factor windows.
	gateway := &fakeGateway{symbol: "2330.TW", series: testSeries(5)}
	analyzer, _ := newTestAnalyzer(t, gateway)

	report, err := analyzer.Run(context.Background(), "tsmc")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.TechnicalAnalysis.IsParsed() {
		t.Fatalf("Technical stage unparsed: %s", report.TechnicalAnalysis.Reason)
	}
	if !strings.Contains(string(report.TechnicalAnalysis.Parsed), "general_analysis") {
		t.Error("Short series must produce the reduced general analysis payload")
	}
}

func TestRunPersistenceFailureIsNotFatal(t *testing.T) {
	gateway := &fakeGateway{symbol: "2330.TW", series: testSeries(30)}
	failing := &memoryPersister{err: errors.Wrap(errors.ErrDataUnavailable, "disk full")}
	working := &memoryPersister{}
	analyzer, _ := newTestAnalyzer(t, gateway,
		WithPersister(failing), WithPersister(working))

	report, err := analyzer.Run(context.Background(), "tsmc")
	if err != nil {
		t.Fatalf("Persistence failure must not fail the run: %v", err)
	}
	if report == nil {
		t.Fatal("Report must be returned despite persistence failure")
	}
	if len(working.reports) != 1 {
		t.Error("Later persisters must still run after one fails")
	}
}
