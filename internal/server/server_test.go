package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"twstock-analyst/internal/agents"
	"twstock-analyst/internal/catalog"
	"twstock-analyst/internal/errors"
	"twstock-analyst/internal/factors"
	"twstock-analyst/internal/models"
	"twstock-analyst/internal/pipeline"
	"twstock-analyst/internal/resolver"
)

type fakeGateway struct {
	series *models.MarketSeries
	err    error
}

func (g *fakeGateway) Fetch(_ context.Context, symbol string, _ int) (*models.MarketSeries, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.series, nil
}

type stageLLM struct{ err error }

func (s *stageLLM) Answer(_ context.Context, prompt string) (*agents.Answer, error) {
	if s.err != nil {
		return nil, s.err
	}
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

type fakeRefresher struct {
	count int
	err   error
}

func (r fakeRefresher) Refresh(_ context.Context) (int, error) {
	return r.count, r.err
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

func newTestServer(t *testing.T, gateway *fakeGateway, llm *stageLLM, refresher Refresher) *Server {
	t.Helper()
	dir, err := catalog.New([]models.CompanyRecord{
		{Symbol: "2330.TW", Name: "台積電", Aliases: []string{"tsmc"}},
	})
	if err != nil {
		t.Fatalf("Failed to build directory: %v", err)
	}

	res := resolver.New(dir, llm, zerolog.Nop())
	calc := factors.NewCalculator(zerolog.Nop())
	reporter := agents.NewReporter(llm, zerolog.Nop())
	analyzer := pipeline.NewAnalyzer(res, gateway, calc, reporter, zerolog.Nop())

	return New(analyzer, refresher, 0, zerolog.Nop())
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeGateway{series: testSeries(30)}, &stageLLM{}, nil)

	rec := doRequest(s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeGateway{series: testSeries(30)}, &stageLLM{}, nil)

	rec := doRequest(s, http.MethodPost, "/analyze", `{"company": "tsmc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("Response not valid JSON: %v", err)
	}
	if string(report["stock"]) != `"2330.TW"` {
		t.Errorf("Unexpected stock field: %s", report["stock"])
	}
}

func TestAnalyzeValidation(t *testing.T) {
	s := newTestServer(t, &fakeGateway{series: testSeries(30)}, &stageLLM{}, nil)

	for _, body := range []string{``, `{}`, `{"company": "  "}`, `not json`} {
		rec := doRequest(s, http.MethodPost, "/analyze", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		gateway *fakeGateway
		llm     *stageLLM
		company string
		status  int
	}{
		{
			name:    "unknown company",
			gateway: &fakeGateway{series: testSeries(30)},
			llm:     &stageLLM{err: errors.NewModelError("chat", errors.ErrModelUnreachable)},
			company: "不存在的公司",
			status:  http.StatusNotFound,
		},
		{
			name:    "market data down",
			gateway: &fakeGateway{err: errors.NewDataError("2330.TW", "gateway down", nil)},
			llm:     &stageLLM{},
			company: "tsmc",
			status:  http.StatusUnprocessableEntity,
		},
		{
			name:    "model unreachable",
			gateway: &fakeGateway{series: testSeries(30)},
			llm:     &stageLLM{err: errors.NewModelError("chat", errors.ErrModelUnreachable)},
			company: "tsmc",
			status:  http.StatusBadGateway,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, tc.gateway, tc.llm, nil)
			rec := doRequest(s, http.MethodPost, "/analyze", `{"company": "`+tc.company+`"}`)
			if rec.Code != tc.status {
				t.Fatalf("Expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRefreshEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeGateway{series: testSeries(30)}, &stageLLM{}, fakeRefresher{count: 1234})

	rec := doRequest(s, http.MethodPost, "/companies/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "1234") {
		t.Errorf("Expected company count in response, got %s", rec.Body.String())
	}
}

func TestRefreshEndpointWithoutRefresher(t *testing.T) {
	s := newTestServer(t, &fakeGateway{series: testSeries(30)}, &stageLLM{}, nil)

	rec := doRequest(s, http.MethodPost, "/companies/refresh", "")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("Expected 501, got %d", rec.Code)
	}
}
