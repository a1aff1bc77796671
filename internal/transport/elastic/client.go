// Package elastic is a thin raw-JSON client for the product index.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/kailas-cloud/b2bsearch/internal/metrics"
)

// ErrNotFound is returned by Get when the document does not exist.
var ErrNotFound = errors.New("elastic: document not found")

// ErrClusterRed is returned by Ping when the cluster reports status red.
var ErrClusterRed = errors.New("elastic: cluster status red")

// Op names used in errors and metrics.
const (
	OpSearch = "search"
	OpGet    = "get"
	OpHealth = "cluster_health"
)

// Error is a non-2xx response or a transport failure.
type Error struct {
	Op     string
	Status int
	Type   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("elastic %s: %v", e.Op, e.Err)
	}
	if e.Type != "" {
		return fmt.Sprintf("elastic %s: status %d: %s: %s", e.Op, e.Status, e.Type, e.Reason)
	}
	return fmt.Sprintf("elastic %s: status %d", e.Op, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds the cluster connection settings.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	Index     string
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// Client executes requests against one index.
type Client struct {
	es     *elasticsearch.Client
	index  string
	logger *zap.Logger
}

// New creates a client. Retries are disabled; callers own the retry policy.
func New(cfg Config) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("elastic: no addresses")
	}
	if cfg.Index == "" {
		return nil, errors.New("elastic: index is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		APIKey:       cfg.APIKey,
		Transport:    cfg.Transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic: create client: %w", err)
	}
	return &Client{es: es, index: cfg.Index, logger: logger}, nil
}

// Index returns the target index name.
func (c *Client) Index() string { return c.index }

// Search runs a _search with body and returns the raw response.
func (c *Client) Search(ctx context.Context, body []byte) ([]byte, error) {
	start := time.Now()
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	metrics.RetrievalDuration.WithLabelValues(OpSearch).Observe(time.Since(start).Seconds())
	return c.read(OpSearch, res, err)
}

// Get fetches one document by id and returns the raw response.
func (c *Client) Get(ctx context.Context, id string) ([]byte, error) {
	start := time.Now()
	res, err := c.es.Get(c.index, id, c.es.Get.WithContext(ctx))
	metrics.RetrievalDuration.WithLabelValues(OpGet).Observe(time.Since(start).Seconds())
	if err == nil && res.StatusCode == http.StatusNotFound {
		drain(res)
		return nil, ErrNotFound
	}
	return c.read(OpGet, res, err)
}

// Ping checks that the cluster answers and is not red. A yellow cluster
// still serves reads.
func (c *Client) Ping(ctx context.Context) error {
	status, err := c.ClusterHealth(ctx)
	if err != nil {
		return err
	}
	if status == "red" {
		return &Error{Op: OpHealth, Err: ErrClusterRed}
	}
	return nil
}

// ClusterHealth returns the cluster status color.
func (c *Client) ClusterHealth(ctx context.Context) (string, error) {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	raw, err := c.read(OpHealth, res, err)
	if err != nil {
		return "", err
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &Error{Op: OpHealth, Err: fmt.Errorf("decode: %w", err)}
	}
	return out.Status, nil
}

func (c *Client) read(op string, res *esapi.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Op: op, Status: res.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if res.IsError() {
		e := &Error{Op: op, Status: res.StatusCode}
		var body struct {
			Error struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &body) == nil {
			e.Type, e.Reason = body.Error.Type, body.Error.Reason
		}
		c.logger.Debug("elastic error response",
			zap.String("op", op), zap.Int("status", res.StatusCode), zap.String("type", e.Type))
		return nil, e
	}
	return raw, nil
}

func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
