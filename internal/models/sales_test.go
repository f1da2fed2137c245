package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"rfc3339 utc", "2026-10-17T09:30:00Z", time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)},
		{"rfc3339 offset", "2026-10-17T11:30:00+02:00", time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)},
		{"zone-less", "2026-10-17T09:30:00", time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)},
		{"zone-less with micros", "2026-10-17T09:30:00.123456", time.Date(2026, 10, 17, 9, 30, 0, 123456000, time.UTC)},
		{"space separated", "2026-10-17 09:30:00", time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)},
		{"date only", "2026-10-17", time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestSalesRecord_UnmarshalJSON(t *testing.T) {
	var r SalesRecord
	err := json.Unmarshal([]byte(`{"product":"Tablet","region":"West","sales_amount":99.5,"quantity":2,"timestamp":"2026-10-01T08:00:00"}`), &r)
	require.NoError(t, err)

	assert.Equal(t, SalesRecord{
		Product:     "Tablet",
		Region:      "West",
		SalesAmount: 99.5,
		Quantity:    2,
		Timestamp:   time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
	}, r)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"timestamp":"2026-10-01T08:00:00Z"`)

	assert.Error(t, json.Unmarshal([]byte(`{"product":"Tablet","timestamp":"soon"}`), &r))
}
