// Package marketdata provides the market data gateway: a fixed-window
// daily OHLCV series per symbol.
package marketdata

import (
	"context"

	"twstock-analyst/internal/models"
)

// Gateway fetches a trailing window of daily candles for a symbol.
// Implementations must return a normalized, ascending-by-date series of
// at least 2 rows; anything less is a data failure, never a zero-filled
// series.
type Gateway interface {
	Fetch(ctx context.Context, symbol string, windowDays int) (*models.MarketSeries, error)
}
