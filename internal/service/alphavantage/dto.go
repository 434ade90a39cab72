package alphavantage

import "encoding/json"

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol           string `json:"01. symbol"`
		Open             string `json:"02. open"`
		High             string `json:"03. high"`
		Low              string `json:"04. low"`
		Price            string `json:"05. price"`
		Volume           string `json:"06. volume"`
		LatestTradingDay string `json:"07. latest trading day"`
		PreviousClose    string `json:"08. previous close"`
		Change           string `json:"09. change"`
		ChangePercent    string `json:"10. change percent"`
	} `json:"Global Quote"`
}

type dailySeriesResponse struct {
	Series map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	} `json:"Time Series (Daily)"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol     string `json:"1. symbol"`
		Name       string `json:"2. name"`
		Type       string `json:"3. type"`
		Region     string `json:"4. region"`
		Currency   string `json:"8. currency"`
		MatchScore string `json:"9. matchScore"`
	} `json:"bestMatches"`
}

type overviewResponse struct {
	Symbol             string `json:"Symbol"`
	Name               string `json:"Name"`
	Description        string `json:"Description"`
	Exchange           string `json:"Exchange"`
	Currency           string `json:"Currency"`
	Country            string `json:"Country"`
	Sector             string `json:"Sector"`
	Industry           string `json:"Industry"`
	MarketCap          string `json:"MarketCapitalization"`
	PERatio            string `json:"PERatio"`
	EPS                string `json:"EPS"`
	DividendYield      string `json:"DividendYield"`
	Beta               string `json:"Beta"`
	AnalystTargetPrice string `json:"AnalystTargetPrice"`
	Week52High         string `json:"52WeekHigh"`
	Week52Low          string `json:"52WeekLow"`
}

type moverDTO struct {
	Ticker           string `json:"ticker"`
	Price            string `json:"price"`
	ChangeAmount     string `json:"change_amount"`
	ChangePercentage string `json:"change_percentage"`
	Volume           string `json:"volume"`
}

type topMoversResponse struct {
	LastUpdated string     `json:"last_updated"`
	TopGainers  []moverDTO `json:"top_gainers"`
	TopLosers   []moverDTO `json:"top_losers"`
	MostActive  []moverDTO `json:"most_actively_traded"`
}

type newsResponse struct {
	Feed []struct {
		Title                 string  `json:"title"`
		URL                   string  `json:"url"`
		TimePublished         string  `json:"time_published"`
		Summary               string  `json:"summary"`
		BannerImage           string  `json:"banner_image"`
		Source                string  `json:"source"`
		OverallSentimentScore float64 `json:"overall_sentiment_score"`
		OverallSentimentLabel string  `json:"overall_sentiment_label"`
	} `json:"feed"`
}

// indicatorResponse carries "Meta Data" plus one "Technical Analysis: <NAME>"
// object keyed by date.
type indicatorResponse map[string]json.RawMessage
