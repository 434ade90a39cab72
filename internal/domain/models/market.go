package models

import "time"

type NewsItem struct {
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	Summary        string    `json:"summary"`
	Source         string    `json:"source"`
	BannerImage    string    `json:"bannerImage,omitempty"`
	PublishedAt    time.Time `json:"publishedAt"`
	SentimentLabel string    `json:"sentimentLabel,omitempty"`
	SentimentScore float64   `json:"sentimentScore"`
}

type CompanyOverview struct {
	Symbol             string  `json:"symbol"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Exchange           string  `json:"exchange"`
	Currency           string  `json:"currency"`
	Country            string  `json:"country"`
	Sector             string  `json:"sector"`
	Industry           string  `json:"industry"`
	MarketCap          float64 `json:"marketCap"`
	PERatio            float64 `json:"peRatio"`
	EPS                float64 `json:"eps"`
	DividendYield      float64 `json:"dividendYield"`
	Beta               float64 `json:"beta"`
	AnalystTargetPrice float64 `json:"analystTargetPrice"`
	Week52High         float64 `json:"week52High"`
	Week52Low          float64 `json:"week52Low"`
}

type TopMover struct {
	Ticker           string  `json:"ticker"`
	Price            float64 `json:"price"`
	ChangeAmount     float64 `json:"changeAmount"`
	ChangePercentage float64 `json:"changePercentage"`
	Volume           int64   `json:"volume"`
}

type TopMovers struct {
	LastUpdated string     `json:"lastUpdated"`
	Gainers     []TopMover `json:"gainers"`
	Losers      []TopMover `json:"losers"`
	MostActive  []TopMover `json:"mostActive"`
}

// SymbolMatch is one symbol search hit.
type SymbolMatch struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Region     string  `json:"region"`
	Currency   string  `json:"currency"`
	MatchScore float64 `json:"matchScore"`
}
