// Package shaping turns raw Elasticsearch search responses into the
// dashboard's result types. Every function validates the body against a
// schema first and fails with MALFORMED_RESPONSE rather than returning a
// partially filled value.
package shaping

import (
	"encoding/json"
	"fmt"

	apperrors "sales-dashboard/internal/common/errors"
	"sales-dashboard/internal/models"
)

type metric struct {
	Value *float64 `json:"value"`
}

// float reports a null metric (no documents) as zero.
func (m metric) float() float64 {
	if m.Value == nil {
		return 0
	}
	return *m.Value
}

type bucket struct {
	Key   string `json:"key"`
	Total metric `json:"total"`
}

type breakdown struct {
	Buckets []bucket `json:"buckets"`
}

type summaryResponse struct {
	Aggregations struct {
		TotalSales    metric    `json:"total_sales"`
		TotalQuantity metric    `json:"total_quantity"`
		AvgSale       metric    `json:"avg_sale"`
		ProductSales  breakdown `json:"product_sales"`
		RegionSales   breakdown `json:"region_sales"`
	} `json:"aggregations"`
}

type hit struct {
	Source models.SalesRecord `json:"_source"`
}

type hitsResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []hit `json:"hits"`
	} `json:"hits"`
}

// ShapeSummary maps the summary aggregations onto a SalesSummary. Buckets
// keep the order the engine returned them in.
func ShapeSummary(raw []byte) (*models.SalesSummary, error) {
	if err := validate("summary", summaryValidator, raw); err != nil {
		return nil, err
	}

	var resp summaryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.NewMalformedResponseError("summary", err.Error())
	}
	aggs := resp.Aggregations

	products := make([]models.ProductSales, 0, len(aggs.ProductSales.Buckets))
	for _, b := range aggs.ProductSales.Buckets {
		products = append(products, models.ProductSales{Product: b.Key, Sales: b.Total.float()})
	}

	regions := make([]models.RegionSales, 0, len(aggs.RegionSales.Buckets))
	for _, b := range aggs.RegionSales.Buckets {
		regions = append(regions, models.RegionSales{Region: b.Key, Sales: b.Total.float()})
	}

	return &models.SalesSummary{
		TotalSales:       aggs.TotalSales.float(),
		TotalQuantity:    aggs.TotalQuantity.float(),
		AvgSale:          aggs.AvgSale.float(),
		ProductBreakdown: products,
		RegionBreakdown:  regions,
	}, nil
}

// ShapeRecords extracts each hit's stored document, preserving hit order.
func ShapeRecords(raw []byte) ([]models.SalesRecord, error) {
	if err := validate("records", recordsValidator, raw); err != nil {
		return nil, err
	}

	resp, err := decodeHits("records", raw)
	if err != nil {
		return nil, err
	}
	return sources(resp), nil
}

// ShapeSearchResult extracts the total match count and the matched records.
func ShapeSearchResult(raw []byte) (*models.SearchResult, error) {
	if err := validate("search", searchValidator, raw); err != nil {
		return nil, err
	}

	resp, err := decodeHits("search", raw)
	if err != nil {
		return nil, err
	}
	return &models.SearchResult{
		Total:   resp.Hits.Total.Value,
		Results: sources(resp),
	}, nil
}

func decodeHits(shape string, raw []byte) (*hitsResponse, error) {
	var resp hitsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperrors.NewMalformedResponseError(shape, fmt.Sprintf("decode hits: %v", err))
	}
	return &resp, nil
}

func sources(resp *hitsResponse) []models.SalesRecord {
	records := make([]models.SalesRecord, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		records = append(records, h.Source)
	}
	return records
}
