package agents

import (
	"math"

	"twstock-analyst/internal/errors"
	"twstock-analyst/internal/models"
)

// tradingPeriodsPerYear scales daily return volatility to an annual figure.
const tradingPeriodsPerYear = 252

// PriceSummary condenses a market series into the figures the market
// analysis and risk stages feed to the model.
type PriceSummary struct {
	LastPrice     float64
	ChangePercent float64 // over the whole window
	MeanVolume    float64
	Volatility    float64 // annualized, percent
}

// SummarizeSeries computes the price summary for a series. A series
// shorter than 2 rows cannot produce a percentage change and is rejected
// before any division takes place.
func SummarizeSeries(series *models.MarketSeries) (PriceSummary, error) {
	if series == nil || series.Len() < 2 {
		symbol := ""
		if series != nil {
			symbol = series.Symbol
		}
		return PriceSummary{}, errors.NewDataError(symbol, "series shorter than 2 periods", nil)
	}

	closes := series.Closes()
	first, last := closes[0], closes[len(closes)-1]

	var volumeSum float64
	for _, c := range series.Candles {
		volumeSum += float64(c.Volume)
	}

	return PriceSummary{
		LastPrice:     last,
		ChangePercent: (last/first - 1) * 100,
		MeanVolume:    volumeSum / float64(series.Len()),
		Volatility:    annualizedVolatility(closes),
	}, nil
}

// annualizedVolatility is the sample standard deviation of close-to-close
// returns scaled by sqrt(252), in percent.
func annualizedVolatility(closes []float64) float64 {
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var sumSq float64
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(len(returns)-1))

	return std * math.Sqrt(tradingPeriodsPerYear) * 100
}
