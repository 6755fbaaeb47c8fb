package locquery

import (
	"context"
	"strings"
)

// TrendingQuery is a popular search and how often it resolved.
type TrendingQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// TrendStore counts successful searches.
type TrendStore interface {
	IncrementQuery(ctx context.Context, canonical, display string) error
	TopQueries(ctx context.Context, limit int) ([]TrendingQuery, error)
}

// Canonical folds case and inner whitespace so "  gold   COAST" and
// "Gold Coast" count as one search.
func (q Query) Canonical() string {
	return strings.ToLower(strings.Join(strings.Fields(q.value), " "))
}
