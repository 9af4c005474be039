package trades

import (
	"fmt"
	"strings"
)

// Filter narrows a trade query. Zero values mean "no constraint";
// numeric bounds are pointers so 0 remains a usable bound.
type Filter struct {
	Wallet   string
	Side     string
	Market   string // case-insensitive substring match on market name
	MinPrice *float64
	MaxPrice *float64
	MinUSD   *float64
	MaxUSD   *float64
}

// sortColumns is the whitelist of sortable columns, keyed by the
// public query-API names.
var sortColumns = map[string]string{
	"timestamp":  "timestamp",
	"side":       "side",
	"share_type": "share_type",
	"market":     "market_name",
	"price":      "price",
	"usd_amount": "usd_amount",
	"shares":     "shares",
	"wallet":     "wallet_address",
}

// Sort describes the requested ordering.
type Sort struct {
	By    string
	Order string // asc / desc
}

// Clause renders the ORDER BY clause. Unknown columns and orders fall
// back to the default of timestamp descending.
func (s Sort) Clause() string {
	column, ok := sortColumns[strings.ToLower(s.By)]
	if !ok {
		column = "timestamp"
		return column + " DESC"
	}
	direction := "DESC"
	if strings.EqualFold(s.Order, "asc") {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}

// Page is a 1-based pagination request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	number := p.Number
	if number < 1 {
		number = 1
	}
	return (number - 1) * p.Limit()
}

// Limit returns the page size, defaulting to 50.
func (p Page) Limit() int {
	if p.Size < 1 {
		return 50
	}
	return p.Size
}

// TotalPages computes the page count for a result set.
func TotalPages(total int64, pageSize int) int {
	if pageSize < 1 {
		pageSize = 50
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
