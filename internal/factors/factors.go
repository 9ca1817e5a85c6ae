// Package factors computes the quantitative factor families that feed
// the technical analysis stage: price momentum and volume momentum,
// anchored to the most recent dates of a market series.
package factors

import (
	"github.com/rs/zerolog"

	"twstock-analyst/internal/models"
)

// Factor names as they appear in factor rows and prompts.
const (
	FactorMomentum5   = "momentum_5d"
	FactorMomentum10  = "momentum_10d"
	FactorMomentum20  = "momentum_20d"
	FactorVolumeRatio = "volume_ratio_5d"
	FactorPVT         = "price_volume_trend"
)

// minRows is the shortest series the calculator accepts: the longest
// momentum period plus one row for its base price.
const minRows = 21

// Calculator computes the factor set for a market series. Factor
// computation is best effort: a series too short for the factor
// windows yields no factor set rather than an error, and the caller
// degrades to reduced-context analysis.
type Calculator struct {
	logger zerolog.Logger
}

// NewCalculator creates a factor calculator.
func NewCalculator(logger zerolog.Logger) *Calculator {
	return &Calculator{logger: logger}
}

// Compute derives all factor rows the series supports. It returns nil
// when the series is too short for the factor windows.
func (c *Calculator) Compute(series *models.MarketSeries) *models.FactorSet {
	if series == nil || series.Len() < minRows {
		rows := 0
		if series != nil {
			rows = series.Len()
		}
		c.logger.Debug().Int("rows", rows).Int("required", minRows).Msg("Series too short for factors")
		return nil
	}

	closes := series.Closes()
	pvt := priceVolumeTrend(series.Candles)

	// Rows start at the first date where every factor is defined.
	rows := make([]models.FactorRow, 0, len(closes)-minRows+1)
	for i := minRows - 1; i < len(closes); i++ {
		rows = append(rows, models.FactorRow{
			Date: series.Candles[i].Date,
			Values: map[string]float64{
				FactorMomentum5:   rateOfChange(closes, i, 5),
				FactorMomentum10:  rateOfChange(closes, i, 10),
				FactorMomentum20:  rateOfChange(closes, i, 20),
				FactorVolumeRatio: volumeRatio(series.Candles, i, 5),
				FactorPVT:         pvt[i],
			},
		})
	}

	return &models.FactorSet{Rows: rows}
}

// rateOfChange is the percentage change of the close over the trailing
// period. A zero base price yields 0 rather than Inf.
func rateOfChange(closes []float64, i, period int) float64 {
	base := closes[i-period]
	if base == 0 {
		return 0
	}
	return (closes[i] - base) / base * 100
}

// volumeRatio compares the day's volume against the trailing period
// mean (the day itself excluded). A zero mean yields 0.
func volumeRatio(candles []models.Candle, i, period int) float64 {
	var sum float64
	for j := i - period; j < i; j++ {
		sum += float64(candles[j].Volume)
	}
	mean := sum / float64(period)
	if mean == 0 {
		return 0
	}
	return float64(candles[i].Volume) / mean
}

// priceVolumeTrend accumulates volume weighted by the relative close
// change, the cumulative PVT line. Index 0 is the zero baseline.
func priceVolumeTrend(candles []models.Candle) []float64 {
	pvt := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			pvt[i] = pvt[i-1]
			continue
		}
		pvt[i] = pvt[i-1] + float64(candles[i].Volume)*(candles[i].Close-prev)/prev
	}
	return pvt
}
