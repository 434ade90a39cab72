package alphavantage

import (
	"context"
	"fmt"
	"strings"

	"FinWatch/internal/domain/models"
	"FinWatch/internal/service/cache"
	"FinWatch/pkg/util"
)

// SearchSymbol returns provider matches for a free-text query.
func (c *Client) SearchSymbol(ctx context.Context, query string) ([]models.SymbolMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SymbolMatch{}, nil
	}

	return cached(ctx, c, cache.TypeSearch, strings.ToLower(query), func(ctx context.Context) ([]models.SymbolMatch, error) {
		var resp symbolSearchResponse
		if err := c.api.Get(ctx, params("SYMBOL_SEARCH", "keywords", query), &resp); err != nil {
			return nil, fmt.Errorf("symbol search %q: %w", query, err)
		}
		out := make([]models.SymbolMatch, 0, len(resp.BestMatches))
		for _, m := range resp.BestMatches {
			out = append(out, models.SymbolMatch{
				Symbol:     m.Symbol,
				Name:       m.Name,
				Type:       m.Type,
				Region:     m.Region,
				Currency:   m.Currency,
				MatchScore: util.ParseNumber(m.MatchScore),
			})
		}
		return out, nil
	})
}

// FetchCompanyOverview returns the company profile, or ErrNoData when the
// provider knows nothing about symbol.
func (c *Client) FetchCompanyOverview(ctx context.Context, symbol string) (*models.CompanyOverview, error) {
	symbol = models.WatchlistItem{Ticker: symbol}.Symbol()
	ov, err := cached(ctx, c, cache.TypeCompany, symbol, func(ctx context.Context) (models.CompanyOverview, error) {
		var resp overviewResponse
		if err := c.api.Get(ctx, params("OVERVIEW", "symbol", symbol), &resp); err != nil {
			return models.CompanyOverview{}, fmt.Errorf("overview %s: %w", symbol, err)
		}
		if resp.Symbol == "" {
			return models.CompanyOverview{}, noData("overview " + symbol)
		}
		return models.CompanyOverview{
			Symbol:             resp.Symbol,
			Name:               resp.Name,
			Description:        resp.Description,
			Exchange:           resp.Exchange,
			Currency:           resp.Currency,
			Country:            resp.Country,
			Sector:             resp.Sector,
			Industry:           resp.Industry,
			MarketCap:          util.ParseNumber(resp.MarketCap),
			PERatio:            util.ParseNumber(resp.PERatio),
			EPS:                util.ParseNumber(resp.EPS),
			DividendYield:      util.ParseNumber(resp.DividendYield),
			Beta:               util.ParseNumber(resp.Beta),
			AnalystTargetPrice: util.ParseNumber(resp.AnalystTargetPrice),
			Week52High:         util.ParseNumber(resp.Week52High),
			Week52Low:          util.ParseNumber(resp.Week52Low),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &ov, nil
}

// FetchTopMovers returns the market's top gainers, losers and most traded.
func (c *Client) FetchTopMovers(ctx context.Context) (*models.TopMovers, error) {
	tm, err := cached(ctx, c, cache.TypeTopMovers, "market", func(ctx context.Context) (models.TopMovers, error) {
		var resp topMoversResponse
		if err := c.api.Get(ctx, params("TOP_GAINERS_LOSERS"), &resp); err != nil {
			return models.TopMovers{}, fmt.Errorf("top movers: %w", err)
		}
		if len(resp.TopGainers)+len(resp.TopLosers)+len(resp.MostActive) == 0 {
			return models.TopMovers{}, noData("top movers")
		}
		return models.TopMovers{
			LastUpdated: resp.LastUpdated,
			Gainers:     toMovers(resp.TopGainers),
			Losers:      toMovers(resp.TopLosers),
			MostActive:  toMovers(resp.MostActive),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func toMovers(in []moverDTO) []models.TopMover {
	out := make([]models.TopMover, 0, len(in))
	for _, m := range in {
		out = append(out, models.TopMover{
			Ticker:           m.Ticker,
			Price:            util.ParseNumber(m.Price),
			ChangeAmount:     util.ParseNumber(m.ChangeAmount),
			ChangePercentage: util.ParseNumber(m.ChangePercentage),
			Volume:           util.ParseInt64(m.Volume),
		})
	}
	return out
}
