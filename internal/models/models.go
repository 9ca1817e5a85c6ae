// Package models provides domain models for the stock analysis application.
package models

import (
	"strings"
	"time"
)

// CompanyRecord is a single entry of the company catalog.
// Aliases are case-folded and always include the company name itself.
type CompanyRecord struct {
	Symbol  string   `json:"symbol"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

// NormalizeAliases lowercases, trims, and deduplicates the alias set,
// making sure the company name is always present.
func (r *CompanyRecord) NormalizeAliases() {
	seen := make(map[string]struct{}, len(r.Aliases)+1)
	out := make([]string, 0, len(r.Aliases)+1)
	for _, a := range append(r.Aliases, r.Name) {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	r.Aliases = out
}

// CatalogFile is the on-disk shape of companies.json.
type CatalogFile struct {
	Companies []CompanyRecord `json:"companies"`
}

// Resolution is the outcome of a successful company lookup.
type Resolution struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Candle represents one OHLCV row of a market series.
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// MarketSeries is an ascending-by-date OHLCV series for one symbol
// covering a fixed trailing window.
type MarketSeries struct {
	Symbol  string   `json:"symbol"`
	Candles []Candle `json:"candles"`
}

// Len returns the number of rows in the series.
func (s *MarketSeries) Len() int {
	return len(s.Candles)
}

// Last returns the most recent candle. The series must be non-empty.
func (s *MarketSeries) Last() Candle {
	return s.Candles[len(s.Candles)-1]
}

// Closes returns the close prices in date order.
func (s *MarketSeries) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}

// FactorRow holds the factor values computed for one date.
type FactorRow struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// FactorSet is the output of the factor engine, anchored to the series'
// last date. A nil *FactorSet is a valid state meaning "no factors
// available"; downstream analysis degrades to a reduced-context mode.
type FactorSet struct {
	Rows []FactorRow `json:"rows"`
}

// Tail returns the last n factor rows (all rows if fewer exist).
func (f *FactorSet) Tail(n int) []FactorRow {
	if len(f.Rows) <= n {
		return f.Rows
	}
	return f.Rows[len(f.Rows)-n:]
}
