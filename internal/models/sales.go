// internal/models/sales.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SalesRecord is a single indexed sale. Records are never updated after indexing.
type SalesRecord struct {
	Product     string    `json:"product"`
	Region      string    `json:"region"`
	SalesAmount float64   `json:"sales_amount"`
	Quantity    int       `json:"quantity"`
	Timestamp   time.Time `json:"timestamp"`
}

// timestampLayouts are tried in order. Zone-less values, as written by
// many ingestion scripts, are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp reads an indexed timestamp in any of the accepted layouts.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func (r *SalesRecord) UnmarshalJSON(data []byte) error {
	type plain SalesRecord
	var raw struct {
		plain
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return err
	}
	*r = SalesRecord(raw.plain)
	r.Timestamp = ts
	return nil
}

// SalesSummary is the aggregate shown on the dashboard landing page.
type SalesSummary struct {
	TotalSales       float64        `json:"total_sales"`
	TotalQuantity    float64        `json:"total_quantity"`
	AvgSale          float64        `json:"avg_sale"`
	ProductBreakdown []ProductSales `json:"product_breakdown"`
	RegionBreakdown  []RegionSales  `json:"region_breakdown"`
}

type ProductSales struct {
	Product string  `json:"product"`
	Sales   float64 `json:"sales"`
}

type RegionSales struct {
	Region string  `json:"region"`
	Sales  float64 `json:"sales"`
}

// SearchResult is the envelope returned by free-text search.
type SearchResult struct {
	Total   int64         `json:"total"`
	Results []SalesRecord `json:"results"`
}

type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthUnhealthy HealthState = "unhealthy"
)

type EngineState string

const (
	EngineConnected    EngineState = "connected"
	EngineDisconnected EngineState = "disconnected"
)

type HealthStatus struct {
	Status        HealthState `json:"status"`
	Elasticsearch EngineState `json:"elasticsearch"`
}

// NewHealthStatus derives the reported status from the ping result.
func NewHealthStatus(connected bool) HealthStatus {
	if connected {
		return HealthStatus{Status: HealthHealthy, Elasticsearch: EngineConnected}
	}
	return HealthStatus{Status: HealthUnhealthy, Elasticsearch: EngineDisconnected}
}

type SeedResult struct {
	Message string `json:"message"`
}
