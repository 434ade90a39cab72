package cache

import "time"

// DataType selects the TTL policy of a cached value.
type DataType string

const (
	TypeQuote     DataType = "quote"
	TypeChart     DataType = "chart"
	TypeNews      DataType = "news"
	TypeCompany   DataType = "company"
	TypeTopMovers DataType = "topMovers"
	TypeSearch    DataType = "search"
	TypeIndicator DataType = "indicator"
)

// TTL policy per data type.
const (
	TTLQuote     = 5 * time.Minute
	TTLChart     = 30 * time.Minute
	TTLNews      = 15 * time.Minute
	TTLCompany   = 24 * time.Hour // company profile rarely changes
	TTLTopMovers = 10 * time.Minute
	TTLSearch    = 24 * time.Hour
	TTLIndicator = time.Hour
)

// TTL returns the time-to-live for t. Unknown types get the quote TTL.
func (t DataType) TTL() time.Duration {
	switch t {
	case TypeChart:
		return TTLChart
	case TypeNews:
		return TTLNews
	case TypeCompany:
		return TTLCompany
	case TypeTopMovers:
		return TTLTopMovers
	case TypeSearch:
		return TTLSearch
	case TypeIndicator:
		return TTLIndicator
	default:
		return TTLQuote
	}
}

// Entry is the persisted envelope around cached data. Times are epoch ms.
type Entry[T any] struct {
	Data      T     `json:"data"`
	Timestamp int64 `json:"timestamp"`
	ExpiresAt int64 `json:"expiresAt"`
}
