// Package dashboardtest provides an in-memory search engine for exercising
// the dashboard end to end without an Elasticsearch cluster.
package dashboardtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "sales-dashboard/internal/common/errors"
	"sales-dashboard/internal/models"
)

// Engine understands the three request shapes the dashboard sends: the
// summary aggregation, the timestamp-sorted listing and multi_match search.
type Engine struct {
	mu       sync.Mutex
	indices  map[string][]models.SalesRecord
	Down     bool
	Searches int
}

func NewEngine() *Engine {
	return &Engine{indices: map[string][]models.SalesRecord{}}
}

// Load replaces index contents directly.
func (e *Engine) Load(index string, records []models.SalesRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indices[index] = append([]models.SalesRecord(nil), records...)
}

func (e *Engine) Records(index string) []models.SalesRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.SalesRecord(nil), e.indices[index]...)
}

func (e *Engine) unreachable() error {
	if e.Down {
		return apperrors.NewConnectionError("elasticsearch unreachable", errors.New("connection refused"))
	}
	return nil
}

func (e *Engine) CheckConnection(ctx context.Context) bool {
	return !e.Down
}

func (e *Engine) IndexExists(ctx context.Context, index string) (bool, error) {
	if err := e.unreachable(); err != nil {
		return false, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.indices[index]
	return ok, nil
}

func (e *Engine) DeleteIndex(ctx context.Context, index string) error {
	if err := e.unreachable(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[index]; !ok {
		return apperrors.NewSearchQueryFailedError("indices.delete", fmt.Errorf("404 Not Found: no such index [%s]", index))
	}
	delete(e.indices, index)
	return nil
}

func (e *Engine) CreateIndex(ctx context.Context, index string, body map[string]interface{}) error {
	if err := e.unreachable(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[index]; ok {
		return apperrors.NewSearchQueryFailedError("indices.create", fmt.Errorf("400 Bad Request: resource_already_exists_exception [%s]", index))
	}
	e.indices[index] = []models.SalesRecord{}
	return nil
}

func (e *Engine) BulkIndex(ctx context.Context, index string, docs []interface{}) error {
	if err := e.unreachable(); err != nil {
		return err
	}
	records := make([]models.SalesRecord, 0, len(docs))
	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		var r models.SalesRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return err
		}
		records = append(records, r)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.indices[index] = append(e.indices[index], records...)
	return nil
}

func (e *Engine) Refresh(ctx context.Context, index string) error {
	return e.unreachable()
}

// Search evaluates body against index and returns an Elasticsearch-shaped
// response.
func (e *Engine) Search(ctx context.Context, index string, body map[string]interface{}) ([]byte, error) {
	if err := e.unreachable(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.Searches++

	records, ok := e.indices[index]
	if !ok {
		return nil, apperrors.NewSearchQueryFailedError("search", fmt.Errorf("404 Not Found: index_not_found_exception [%s]", index))
	}

	if _, ok := body["aggs"]; ok {
		return json.Marshal(aggregate(records))
	}

	size := 10
	if v, ok := body["size"].(int); ok {
		size = v
	}

	matched := records
	if query, ok := body["query"].(map[string]interface{}); ok {
		matched = multiMatch(records, query)
	}
	if _, ok := body["sort"]; ok {
		matched = append([]models.SalesRecord(nil), matched...)
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		})
	}

	total := len(matched)
	if size < len(matched) {
		matched = matched[:size]
	}

	hits := make([]map[string]interface{}, len(matched))
	for i, r := range matched {
		hits[i] = map[string]interface{}{"_index": index, "_id": fmt.Sprint(i), "_source": r}
	}
	return json.Marshal(map[string]interface{}{
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": total, "relation": "eq"},
			"hits":  hits,
		},
	})
}

func multiMatch(records []models.SalesRecord, query map[string]interface{}) []models.SalesRecord {
	mm, _ := query["multi_match"].(map[string]interface{})
	text, _ := mm["query"].(string)
	fields, _ := mm["fields"].([]string)
	terms := strings.Fields(strings.ToLower(text))

	var out []models.SalesRecord
	for _, r := range records {
		values := map[string]string{"product": r.Product, "region": r.Region}
		if matchesAny(terms, fields, values) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAny(terms, fields []string, values map[string]string) bool {
	for _, f := range fields {
		for _, tok := range strings.Fields(strings.ToLower(values[f])) {
			for _, term := range terms {
				if tok == term {
					return true
				}
			}
		}
	}
	return false
}

type bucket struct {
	key   string
	total float64
}

func aggregate(records []models.SalesRecord) map[string]interface{} {
	var totalSales, totalQty float64
	byProduct := map[string]float64{}
	byRegion := map[string]float64{}
	for _, r := range records {
		totalSales += r.SalesAmount
		totalQty += float64(r.Quantity)
		byProduct[r.Product] += r.SalesAmount
		byRegion[r.Region] += r.SalesAmount
	}

	var avg interface{}
	if len(records) > 0 {
		avg = totalSales / float64(len(records))
	}

	return map[string]interface{}{
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": len(records), "relation": "eq"},
			"hits":  []interface{}{},
		},
		"aggregations": map[string]interface{}{
			"total_sales":    map[string]interface{}{"value": totalSales},
			"total_quantity": map[string]interface{}{"value": totalQty},
			"avg_sale":       map[string]interface{}{"value": avg},
			"product_sales":  terms(byProduct),
			"region_sales":   terms(byRegion),
		},
	}
}

// terms orders buckets by descending total then ascending key, capped at 10.
func terms(sums map[string]float64) map[string]interface{} {
	buckets := make([]bucket, 0, len(sums))
	for k, v := range sums {
		buckets = append(buckets, bucket{key: k, total: v})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].total != buckets[j].total {
			return buckets[i].total > buckets[j].total
		}
		return buckets[i].key < buckets[j].key
	})
	if len(buckets) > 10 {
		buckets = buckets[:10]
	}

	out := make([]map[string]interface{}, len(buckets))
	for i, b := range buckets {
		out[i] = map[string]interface{}{
			"key":   b.key,
			"total": map[string]interface{}{"value": b.total},
		}
	}
	return map[string]interface{}{"buckets": out}
}
