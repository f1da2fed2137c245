// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/common/config"
	"sales-dashboard/internal/common/database"
	"sales-dashboard/internal/common/logger"
	"sales-dashboard/internal/common/observability"
	"sales-dashboard/internal/common/server"
	"sales-dashboard/internal/dashboard"
	"sales-dashboard/internal/dashboard/handler"
	"sales-dashboard/internal/dashboard/seeding"
	"sales-dashboard/internal/models"
)

func elasticsearchURL() string {
	if url := os.Getenv("ELASTICSEARCH_URL"); url != "" {
		return url
	}
	return "http://localhost:9200"
}

// newLiveAPI wires the full stack against a real cluster on a throwaway
// index. The test is skipped when no cluster answers.
func newLiveAPI(t *testing.T) (http.Handler, *database.ElasticsearchClient, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}

	log := logger.NewTestLogger(t)
	esClient, err := database.NewElasticsearch(config.ElasticsearchConfig{
		URL:            elasticsearchURL(),
		RequestTimeout: 10000,
	}, log)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !esClient.CheckConnection(ctx) {
		t.Skipf("Elasticsearch not available at %s", elasticsearchURL())
	}

	index := fmt.Sprintf("sales_data_e2e_%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = esClient.DeleteIndex(context.Background(), index) })

	mr := miniredis.RunT(t)
	redis, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { redis.Close() })

	seeder := seeding.NewSeeder(esClient, index, log, seeding.WithLocker(redis, time.Minute))
	obs := observability.New("sales-dashboard-e2e", prometheus.NewRegistry(), log)
	svc := dashboard.NewService(esClient, seeder, dashboard.Config{
		Index:          index,
		MaxRecentLimit: 10000,
		SearchFields:   []string{"product", "region"},
	}, obs, log)

	srv := server.New(config.ServerConfig{
		Mode:           gin.TestMode,
		AllowedOrigins: []string{"*"},
	}, log, handler.NewHandler(svc, 10, log))
	return srv.Handler(), esClient, index
}

func call(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDashboardAgainstElasticsearch(t *testing.T) {
	h, _, _ := newLiveAPI(t)

	w := call(t, h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","elasticsearch":"connected"}`, w.Body.String())

	w = call(t, h, http.MethodPost, "/api/create-sample-data", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	t.Run("summary", func(t *testing.T) {
		w := call(t, h, http.MethodGet, "/api/dashboard/summary", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var summary models.SalesSummary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))

		var byProduct, byRegion float64
		for _, p := range summary.ProductBreakdown {
			assert.Contains(t, seeding.Products(), p.Product)
			byProduct += p.Sales
		}
		for _, r := range summary.RegionBreakdown {
			assert.Contains(t, seeding.Regions(), r.Region)
			byRegion += r.Sales
		}
		assert.InDelta(t, summary.TotalSales, byProduct, 0.01)
		assert.InDelta(t, summary.TotalSales, byRegion, 0.01)
		assert.InDelta(t, summary.TotalSales/seeding.SampleSize, summary.AvgSale, 0.01)
	})

	t.Run("recent", func(t *testing.T) {
		w := call(t, h, http.MethodGet, "/api/sales/recent?limit=5", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var records []models.SalesRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
		require.Len(t, records, 5)
		for i := 1; i < len(records); i++ {
			assert.False(t, records[i].Timestamp.After(records[i-1].Timestamp))
		}
	})

	t.Run("search", func(t *testing.T) {
		w := call(t, h, http.MethodPost, "/api/search", `{"query":"Laptop"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result models.SearchResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.LessOrEqual(t, int(result.Total), seeding.SampleSize)
		for _, r := range result.Results {
			assert.Equal(t, "Laptop", r.Product)
		}

		w = call(t, h, http.MethodPost, "/api/search", `{"query":""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("regeneration replaces data", func(t *testing.T) {
		w := call(t, h, http.MethodPost, "/api/create-sample-data", "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = call(t, h, http.MethodGet, "/api/sales/recent?limit=1000", "")
		require.Equal(t, http.StatusOK, w.Code)

		var records []models.SalesRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
		assert.Len(t, records, seeding.SampleSize)
	})
}

func TestHealthWithUnreachableCluster(t *testing.T) {
	log := logger.NewTestLogger(t)
	esClient, err := database.NewElasticsearch(config.ElasticsearchConfig{URL: "http://127.0.0.1:1"}, log)
	require.NoError(t, err)

	svc := dashboard.NewService(esClient, seeding.NewSeeder(esClient, "sales_data", log), dashboard.Config{Index: "sales_data"}, nil, log)
	srv := server.New(config.ServerConfig{Mode: gin.TestMode, AllowedOrigins: []string{"*"}}, log, handler.NewHandler(svc, 10, log))

	w := call(t, srv.Handler(), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","elasticsearch":"disconnected"}`, w.Body.String())
}
