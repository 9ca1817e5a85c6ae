package agents

import (
	"math"
	"testing"
	"time"

	"twstock-analyst/internal/errors"
	"twstock-analyst/internal/models"
)

func seriesFromCloses(closes []float64, volume int64) *models.MarketSeries {
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Date:   base.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: volume,
		}
	}
	return &models.MarketSeries{Symbol: "2330.TW", Candles: candles}
}

func TestSummarizeSeries(t *testing.T) {
	series := seriesFromCloses([]float64{500, 505, 495, 510, 508}, 2000)

	summary, err := SummarizeSeries(series)
	if err != nil {
		t.Fatalf("SummarizeSeries failed: %v", err)
	}

	if summary.LastPrice != 508 {
		t.Errorf("LastPrice = %v, want 508", summary.LastPrice)
	}
	if math.Abs(summary.ChangePercent-1.60) > 1e-9 {
		t.Errorf("ChangePercent = %v, want 1.60", summary.ChangePercent)
	}
	if summary.MeanVolume != 2000 {
		t.Errorf("MeanVolume = %v, want 2000", summary.MeanVolume)
	}
	if summary.Volatility <= 0 {
		t.Errorf("Volatility must be positive, got %v", summary.Volatility)
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	// Alternating ±1% moves: sample stddev of the four returns scaled by
	// sqrt(252), in percent.
	series := seriesFromCloses([]float64{100, 101, 100, 101, 100}, 1000)

	summary, err := SummarizeSeries(series)
	if err != nil {
		t.Fatalf("SummarizeSeries failed: %v", err)
	}
	if math.Abs(summary.Volatility-18.24) > 0.01 {
		t.Errorf("Volatility = %v, want ~18.24", summary.Volatility)
	}
}

func TestSummarizeShortSeries(t *testing.T) {
	cases := []*models.MarketSeries{
		nil,
		{Symbol: "2330.TW"},
		seriesFromCloses([]float64{500}, 1000),
	}
	for _, series := range cases {
		_, err := SummarizeSeries(series)
		if !errors.Is(err, errors.ErrDataUnavailable) {
			t.Errorf("Expected ErrDataUnavailable for short series, got %v", err)
		}
	}
}
