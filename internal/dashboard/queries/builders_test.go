package queries

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sales-dashboard/internal/common/errors"
)

func toJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestBuildSummaryQuery(t *testing.T) {
	q := BuildSummaryQuery("sales_data")

	assert.Equal(t, "sales_data", q.Index)
	assert.JSONEq(t, `{
		"size": 0,
		"aggs": {
			"total_sales":    {"sum": {"field": "sales_amount"}},
			"total_quantity": {"sum": {"field": "quantity"}},
			"avg_sale":       {"avg": {"field": "sales_amount"}},
			"product_sales": {
				"terms": {"field": "product.keyword", "size": 10, "order": [{"total": "desc"}, {"_key": "asc"}]},
				"aggs":  {"total": {"sum": {"field": "sales_amount"}}}
			},
			"region_sales": {
				"terms": {"field": "region.keyword", "size": 10, "order": [{"total": "desc"}, {"_key": "asc"}]},
				"aggs":  {"total": {"sum": {"field": "sales_amount"}}}
			}
		}
	}`, toJSON(t, q.Body))
}

func TestBuildRecentQuery(t *testing.T) {
	for _, limit := range []int{1, 5, 10, 250, 10000} {
		q, err := BuildRecentQuery("sales_data", limit, 10000)
		require.NoError(t, err)

		assert.Equal(t, limit, q.Body["size"])
		assert.JSONEq(t, `[{"timestamp":{"order":"desc"}}]`, toJSON(t, q.Body["sort"]))
		assert.NotContains(t, q.Body, "query")
	}
}

func TestBuildRecentQuery_InvalidLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		maxLimit int
	}{
		{"zero", 0, 100},
		{"negative", -3, 100},
		{"above max", 101, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildRecentQuery("sales_data", tt.limit, tt.maxLimit)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidQuery))
		})
	}

	_, err := BuildRecentQuery("sales_data", 50000, 0)
	assert.NoError(t, err, "a zero max disables the upper bound")
}

func TestBuildSearchQuery(t *testing.T) {
	q, err := BuildSearchQuery("sales_data", "  Laptop ", nil)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"track_total_hits": true,
		"query": {"multi_match": {"query": "Laptop", "fields": ["product", "region"]}}
	}`, toJSON(t, q.Body))

	q, err = BuildSearchQuery("sales_data", "North", []string{"region"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"multi_match": {"query": "North", "fields": ["region"]}}`, toJSON(t, q.Body["query"]))
}

func TestBuildSearchQuery_FieldsAreCopied(t *testing.T) {
	fields := DefaultSearchFields()
	fields[0] = "quantity"

	custom := []string{"region"}
	q, err := BuildSearchQuery("sales_data", "North", custom)
	require.NoError(t, err)
	custom[0] = "product"
	assert.JSONEq(t, `{"multi_match": {"query": "North", "fields": ["region"]}}`, toJSON(t, q.Body["query"]))

	q, err = BuildSearchQuery("sales_data", "Laptop", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"multi_match": {"query": "Laptop", "fields": ["product", "region"]}}`, toJSON(t, q.Body["query"]))
	assert.Equal(t, []string{"product", "region"}, DefaultSearchFields())
}

func TestBuildSearchQuery_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := BuildSearchQuery("sales_data", text, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidQuery))
	}
}
