package queries

import (
	"fmt"
	"strings"

	apperrors "sales-dashboard/internal/common/errors"
)

// Aggregation names shared with the response shaper.
const (
	AggTotalSales    = "total_sales"
	AggTotalQuantity = "total_quantity"
	AggAvgSale       = "avg_sale"
	AggProductSales  = "product_sales"
	AggRegionSales   = "region_sales"
	AggBucketTotal   = "total"
)

// Document fields.
const (
	FieldProduct     = "product"
	FieldRegion      = "region"
	FieldSalesAmount = "sales_amount"
	FieldQuantity    = "quantity"
	FieldTimestamp   = "timestamp"
)

// BreakdownSize is the bucket count requested for each breakdown. Both
// catalogs are smaller than this, so no bucket is dropped.
const BreakdownSize = 10

var defaultSearchFields = []string{FieldProduct, FieldRegion}

// DefaultSearchFields returns the fields matched by free-text search when the
// caller passes none.
func DefaultSearchFields() []string {
	return append([]string(nil), defaultSearchFields...)
}

// Query is an engine request descriptor: the target index and the JSON body.
type Query struct {
	Index string
	Body  map[string]interface{}
}

// BuildSummaryQuery requests the five dashboard aggregations and no hits.
func BuildSummaryQuery(index string) Query {
	return Query{
		Index: index,
		Body: map[string]interface{}{
			"size": 0,
			"aggs": map[string]interface{}{
				AggTotalSales:    sumOf(FieldSalesAmount),
				AggTotalQuantity: sumOf(FieldQuantity),
				AggAvgSale: map[string]interface{}{
					"avg": map[string]interface{}{"field": FieldSalesAmount},
				},
				AggProductSales: breakdownBy(FieldProduct),
				AggRegionSales:  breakdownBy(FieldRegion),
			},
		},
	}
}

func sumOf(field string) map[string]interface{} {
	return map[string]interface{}{
		"sum": map[string]interface{}{"field": field},
	}
}

// breakdownBy groups on the exact-match keyword sub-field and sums sales per
// bucket. Buckets come back by descending sales with ties broken by key.
func breakdownBy(field string) map[string]interface{} {
	return map[string]interface{}{
		"terms": map[string]interface{}{
			"field": field + ".keyword",
			"size":  BreakdownSize,
			"order": []map[string]interface{}{
				{AggBucketTotal: "desc"},
				{"_key": "asc"},
			},
		},
		"aggs": map[string]interface{}{
			AggBucketTotal: sumOf(FieldSalesAmount),
		},
	}
}

// BuildRecentQuery requests the limit most recent records.
func BuildRecentQuery(index string, limit, maxLimit int) (Query, error) {
	if limit <= 0 {
		return Query{}, apperrors.NewInvalidQueryError(fmt.Sprintf("limit must be positive, got %d", limit))
	}
	if maxLimit > 0 && limit > maxLimit {
		return Query{}, apperrors.NewInvalidQueryError(fmt.Sprintf("limit must not exceed %d, got %d", maxLimit, limit))
	}

	return Query{
		Index: index,
		Body: map[string]interface{}{
			"size": limit,
			"sort": []map[string]interface{}{
				{FieldTimestamp: map[string]interface{}{"order": "desc"}},
			},
		},
	}, nil
}

// BuildSearchQuery requests records whose fields best-match text. Empty text
// is rejected here so it never reaches the engine.
func BuildSearchQuery(index, text string, fields []string) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, apperrors.NewInvalidQueryError("Query parameter required")
	}
	if len(fields) == 0 {
		fields = defaultSearchFields
	}
	fields = append([]string(nil), fields...)

	return Query{
		Index: index,
		Body: map[string]interface{}{
			"track_total_hits": true,
			"query": map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":  text,
					"fields": fields,
				},
			},
		},
	}, nil
}
