package crypto

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"FinWatch/pkg/util"
)

type quoteResponse struct {
	Status  string `json:"status"`
	Symbols []struct {
		Last                  decimal.Decimal `json:"last"`
		DailyChangePercentage decimal.Decimal `json:"daily_change_percentage"`
		Highest               decimal.Decimal `json:"highest"`
		Lowest                decimal.Decimal `json:"lowest"`
	} `json:"symbols"`
}

type historyResponse struct {
	Status string `json:"status"`
	Result []struct {
		TimeClose flexTime        `json:"time_close"`
		Close     decimal.Decimal `json:"close"`
	} `json:"result"`
}

// flexTime accepts unix seconds, unix milliseconds or a date string.
type flexTime struct {
	time.Time
	ok bool
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		return nil
	}
	t.Time, t.ok = util.ParseTime(s)
	return nil
}

func successful(status string) bool {
	return strings.EqualFold(status, statusOK)
}

// quote is what the quote cache holds; the sparkline is attached on read.
type quote struct {
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
}

var _ json.Unmarshaler = (*flexTime)(nil)
