package models

import (
	"strings"
	"time"
)

// AssetType distinguishes which provider serves a ticker.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
)

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	return t == AssetStock || t == AssetCrypto
}

type WatchlistItem struct {
	Ticker string    `json:"ticker" validate:"required,ticker"`
	Type   AssetType `json:"type" validate:"required,oneof=stock crypto"`
}

// Key is the identity used to join provider results back to the watchlist.
func (w WatchlistItem) Key() string {
	return string(w.Type) + ":" + w.Symbol()
}

// Symbol returns the provider-facing ticker.
func (w WatchlistItem) Symbol() string {
	return strings.ToUpper(strings.TrimSpace(w.Ticker))
}

type FinancialAsset struct {
	Ticker    string    `json:"ticker"`
	Type      AssetType `json:"type"`
	Price     float64   `json:"price"`
	Change24h float64   `json:"change24h"` // percent
	Sparkline []float64 `json:"sparkline"`
	// SparklineApproximate marks a sparkline synthesized from the day's
	// high/low instead of a real price series.
	SparklineApproximate bool `json:"sparklineApproximate,omitempty"`
}

// Item returns the watchlist identity of the asset.
func (a FinancialAsset) Item() WatchlistItem {
	return WatchlistItem{Ticker: a.Ticker, Type: a.Type}
}

// ZeroAsset is the degraded representative of a ticker whose data could not be fetched.
func ZeroAsset(item WatchlistItem) FinancialAsset {
	return FinancialAsset{
		Ticker:    item.Ticker,
		Type:      item.Type,
		Sparkline: []float64{},
	}
}

// TickerFailure records why a watchlist entry was zeroed.
type TickerFailure struct {
	Ticker  string    `json:"ticker"`
	Type    AssetType `json:"type"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// WatchlistResult is one aggregation run. Assets mirrors the requested
// watchlist in length and order.
type WatchlistResult struct {
	ID          string           `json:"id"`
	FetchedAt   time.Time        `json:"fetchedAt"`
	Assets      []FinancialAsset `json:"assets"`
	Failures    []TickerFailure  `json:"failures,omitempty"`
	RateLimited bool             `json:"rateLimited"`
}

// ChartDataPoint is one close; Time is epoch milliseconds.
type ChartDataPoint struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}
