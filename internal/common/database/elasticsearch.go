// internal/common/database/elasticsearch.go
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sales-dashboard/internal/common/config"
	apperrors "sales-dashboard/internal/common/errors"
	commonhttp "sales-dashboard/internal/common/http"
	"sales-dashboard/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const pingTimeout = 5 * time.Second

// ElasticsearchClient wraps the Elasticsearch client. It is built once at
// startup and shared by every request; the underlying client is safe for
// concurrent use.
type ElasticsearchClient struct {
	Client         *elasticsearch.Client
	requestTimeout time.Duration
	logger         logger.Logger
}

// Option customises client construction.
type Option func(*elasticsearch.Config)

// WithTransport swaps the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *elasticsearch.Config) {
		c.Transport = rt
	}
}

// NewElasticsearch creates a new Elasticsearch client. No request is sent; a
// malformed endpoint fails with a CONNECTION_ERROR.
func NewElasticsearch(cfg config.ElasticsearchConfig, log logger.Logger, opts ...Option) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if cfg.URL != "" {
		addresses = []string{cfg.URL}
	}
	if len(addresses) == 0 {
		return nil, apperrors.NewConnectionError("no elasticsearch address configured", nil)
	}
	for _, addr := range addresses {
		if err := validateAddress(addr); err != nil {
			return nil, apperrors.NewConnectionError(fmt.Sprintf("invalid address %q", addr), err)
		}
	}

	// Callers surface failures; a resent _bulk would duplicate documents.
	esCfg := elasticsearch.Config{
		Addresses:    addresses,
		DisableRetry: true,
		Transport: commonhttp.NewTransport(commonhttp.TransportConfig{
			ResponseHeaderTimeout: config.GetDuration(cfg.RequestTimeout),
		}),
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}
	for _, opt := range opts {
		opt(&esCfg)
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, apperrors.NewConnectionError("failed to create elasticsearch client", err)
	}

	return &ElasticsearchClient{
		Client:         es,
		requestTimeout: config.GetDuration(cfg.RequestTimeout),
		logger:         log.WithFields(map[string]interface{}{"component": "elasticsearch"}),
	}, nil
}

func validateAddress(addr string) error {
	u, err := url.Parse(addr)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}

// CheckConnection is the liveness check. Failures are logged and reported as
// false, never returned.
func (c *ElasticsearchClient) CheckConnection(ctx context.Context) bool {
	if err := c.Ping(ctx); err != nil {
		c.logger.Warn("elasticsearch ping failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	return true
}

func (c *ElasticsearchClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

// IndexExists reports whether the named index exists.
func (c *ElasticsearchClient) IndexExists(ctx context.Context, index string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, c.Client)
	if err != nil {
		return false, apperrors.NewConnectionError("elasticsearch unreachable", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError("indices.exists", res)
	}
}

// DeleteIndex removes the named index.
func (c *ElasticsearchClient) DeleteIndex(ctx context.Context, index string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.IndicesDeleteRequest{Index: []string{index}}.Do(ctx, c.Client)
	if err != nil {
		return apperrors.NewConnectionError("elasticsearch unreachable", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("indices.delete", res)
	}
	return nil
}

// CreateIndex creates the named index with the given settings/mappings body.
func (c *ElasticsearchClient) CreateIndex(ctx context.Context, index string, body map[string]interface{}) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := esapi.IndicesCreateRequest{Index: index}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode index body: %w", err)
		}
		req.Body = bytes.NewReader(payload)
	}

	res, err := req.Do(ctx, c.Client)
	if err != nil {
		return apperrors.NewConnectionError("elasticsearch unreachable", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("indices.create", res)
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// BulkIndex indexes every document in one _bulk request. Any item-level
// failure fails the whole call.
func (c *ElasticsearchClient) BulkIndex(ctx context.Context, index string, docs []interface{}) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		buf.WriteString(`{"index":{}}` + "\n")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode bulk document: %w", err)
		}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.BulkRequest{Index: index, Body: &buf}.Do(ctx, c.Client)
	if err != nil {
		return apperrors.NewConnectionError("elasticsearch unreachable", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("bulk", res)
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if len(br.Items) != len(docs) {
		return fmt.Errorf("bulk response reported %d items for %d documents", len(br.Items), len(docs))
	}
	if br.Errors {
		failed := 0
		var first string
		for _, item := range br.Items {
			for _, result := range item {
				if result.Error != nil {
					failed++
					if first == "" {
						first = fmt.Sprintf("%s: %s", result.Error.Type, result.Error.Reason)
					}
				}
			}
		}
		return fmt.Errorf("bulk indexing failed for %d of %d documents: %s", failed, len(docs), first)
	}
	return nil
}

// Refresh makes every write to index visible to search.
func (c *ElasticsearchClient) Refresh(ctx context.Context, index string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := esapi.IndicesRefreshRequest{Index: []string{index}}.Do(ctx, c.Client)
	if err != nil {
		return apperrors.NewConnectionError("elasticsearch unreachable", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("indices.refresh", res)
	}
	return nil
}

// Search runs body against index and returns the raw response body.
func (c *ElasticsearchClient) Search(ctx context.Context, index string, body map[string]interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, c.Client)
	if err != nil {
		return nil, apperrors.NewConnectionError("elasticsearch unreachable", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, apperrors.NewSearchQueryFailedError("search", fmt.Errorf("read response: %w", err))
	}
	return raw, nil
}

func responseError(operation string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return apperrors.NewSearchQueryFailedError(operation,
		fmt.Errorf("%s: %s", res.Status(), strings.TrimSpace(string(body))))
}
