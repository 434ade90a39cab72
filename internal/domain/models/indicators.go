package models

// Indicator signals.
const (
	RSIOverbought = "overbought"
	RSIOversold   = "oversold"
	RSINeutral    = "neutral"

	MACDBullish = "bullish"
	MACDBearish = "bearish"
	MACDNeutral = "neutral"

	BandAboveUpper = "above_upper"
	BandBelowLower = "below_lower"
	BandWithin     = "within"
)

type IndicatorPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type RSIResult struct {
	Symbol  string           `json:"symbol"`
	Series  []IndicatorPoint `json:"series"`
	Current float64          `json:"current"`
	Signal  string           `json:"signal"`
}

type MACDPoint struct {
	Date      string  `json:"date"`
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

type MACDResult struct {
	Symbol string      `json:"symbol"`
	Series []MACDPoint `json:"series"`
	Signal string      `json:"signal"`
}

type BollingerPoint struct {
	Date   string  `json:"date"`
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

type BollingerResult struct {
	Symbol   string           `json:"symbol"`
	Series   []BollingerPoint `json:"series"`
	Price    float64          `json:"price,omitempty"`
	Position string           `json:"position"`
}
