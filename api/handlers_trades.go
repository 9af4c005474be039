package api

import (
	"net/http"

	"insider-tracker/database/trades"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// handleQueryTrades serves the filtered, sorted, paginated trade feed.
func (s *Server) handleQueryTrades(w http.ResponseWriter, r *http.Request) {
	one := 1
	maxSize := maxPageSize

	filter := trades.Filter{
		Wallet:   r.URL.Query().Get("wallet"),
		Side:     r.URL.Query().Get("side"),
		Market:   r.URL.Query().Get("market"),
		MinPrice: getFloatPtrParam(r, "min_price"),
		MaxPrice: getFloatPtrParam(r, "max_price"),
		MinUSD:   getFloatPtrParam(r, "min_usd"),
		MaxUSD:   getFloatPtrParam(r, "max_usd"),
	}
	sort := trades.Sort{
		By:    r.URL.Query().Get("sort_by"),
		Order: r.URL.Query().Get("order"),
	}
	page := trades.Page{
		Number: getIntParam(r, "page", 1, &one, nil),
		Size:   getIntParam(r, "page_size", defaultPageSize, &one, &maxSize),
	}

	items, total, err := s.store.QueryTrades(filter, sort, page)
	if err != nil {
		respondError(w, errorStatus(err), "failed to query trades", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"items":         items,
		"total_results": total,
		"total_pages":   trades.TotalPages(total, page.Limit()),
		"current_page":  page.Number,
		"page_size":     page.Limit(),
	})
}

// handleListMarkets returns the distinct market names seen in stored
// trades, optionally scoped to one wallet (address or custom name).
func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := s.store.DistinctMarkets(r.URL.Query().Get("wallet"))
	if err != nil {
		respondError(w, errorStatus(err), "failed to list markets", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"markets": markets, "count": len(markets)})
}
