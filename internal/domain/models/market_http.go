package models

// Requests for market HTTP endpoints.

type WatchlistRequest struct {
	Items []WatchlistItem `json:"items" validate:"required,min=1,max=100,dive"`
}

type ChartRequest struct {
	Ticker string    `query:"ticker" json:"ticker" validate:"required,ticker"`
	Type   AssetType `query:"type" json:"type" default:"stock" validate:"oneof=stock crypto"`
}

type SearchRequest struct {
	Query string `query:"q" json:"q" validate:"max=64"`
}

type SymbolRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,ticker"`
}

type NewsRequest struct {
	Ticker string    `query:"ticker" json:"ticker" validate:"required,ticker"`
	Type   AssetType `query:"type" json:"type" default:"stock" validate:"oneof=stock crypto"`
}

type BollingerRequest struct {
	Symbol string  `query:"symbol" json:"symbol" validate:"required,ticker"`
	Price  float64 `query:"price" json:"price" validate:"gte=0"`
}

type AddKeyRequest struct {
	Key string `json:"key" validate:"required,min=4,max=128"`
}
