// Package seeding regenerates the sales index with synthetic records.
package seeding

import (
	"math/rand"
	"time"

	"sales-dashboard/internal/models"
)

// SampleSize is the number of records written by one regeneration.
const SampleSize = 100

// Catalogs sampled uniformly by Generate.
var (
	products = []string{"Laptop", "Phone", "Tablet", "Headphones", "Camera"}
	regions  = []string{"North", "South", "East", "West"}
)

// Products returns a copy of the product catalog.
func Products() []string {
	return append([]string(nil), products...)
}

// Regions returns a copy of the region catalog.
func Regions() []string {
	return append([]string(nil), regions...)
}

// Inclusive bounds for generated values.
const (
	MinSalesAmount = 100
	MaxSalesAmount = 5000
	MinQuantity    = 1
	MaxQuantity    = 50
	MaxAgeDays     = 30
)

// Generate returns n records drawn from rng. Timestamps fall within the
// MaxAgeDays days before now, at whole-second precision in UTC.
func Generate(rng *rand.Rand, now time.Time, n int) []models.SalesRecord {
	now = now.UTC().Truncate(time.Second)

	records := make([]models.SalesRecord, n)
	for i := range records {
		records[i] = models.SalesRecord{
			Product:     products[rng.Intn(len(products))],
			Region:      regions[rng.Intn(len(regions))],
			SalesAmount: float64(between(rng, MinSalesAmount, MaxSalesAmount)),
			Quantity:    between(rng, MinQuantity, MaxQuantity),
			Timestamp:   now.AddDate(0, 0, -between(rng, 0, MaxAgeDays)),
		}
	}
	return records
}

func between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

// IndexMapping is the explicit mapping for the sales index. Text fields carry
// a keyword sub-field so the summary can group on exact values.
func IndexMapping() map[string]interface{} {
	textWithKeyword := map[string]interface{}{
		"type": "text",
		"fields": map[string]interface{}{
			"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256},
		},
	}
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"product":      textWithKeyword,
				"region":       textWithKeyword,
				"sales_amount": map[string]interface{}{"type": "double"},
				"quantity":     map[string]interface{}{"type": "integer"},
				"timestamp":    map[string]interface{}{"type": "date"},
			},
		},
	}
}
