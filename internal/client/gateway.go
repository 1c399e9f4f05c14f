package client

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

	"inventory/internal/models"

	"go.uber.org/zap"
)

// Gateway is the HTTP client for the inventory REST API. Every call is a
// single round trip with no retry.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default http.Client, which sets no timeout of
// its own. Callers bound requests through the client or the context.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log *zap.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

// NewGateway returns a Gateway talking to the API at baseURL, for example
// "http://localhost:8080".
func NewGateway(baseURL string, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type errorBody struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

// FetchAll returns the full product collection.
func (g *Gateway) FetchAll(ctx context.Context) ([]models.Product, error) {
	const op = "fetch products"
	var products []models.Product
	status, _, err := g.do(ctx, http.MethodGet, "/api/getproducts", nil, &products)
	if err != nil {
		return nil, &FetchError{Op: op, Status: status, Err: err}
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// FetchOne returns the product with the given id, or ErrNotFound.
func (g *Gateway) FetchOne(ctx context.Context, id string) (*models.Product, error) {
	const op = "fetch product"
	var product models.Product
	status, _, err := g.do(ctx, http.MethodGet, "/api/getproducts/"+url.PathEscape(id), nil, &product)
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	if err != nil {
		return nil, &FetchError{Op: op, Status: status, Err: err}
	}
	return &product, nil
}

// Create submits a new product and returns the stored record with its
// backend-assigned ID.
func (g *Gateway) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	const op = "create product"
	product.ID = ""
	var created models.Product
	status, body, err := g.do(ctx, http.MethodPost, "/api/createproduct", product, &created)
	if err != nil {
		return nil, &SaveError{Op: op, Status: status, Detail: body.Error, Err: err}
	}
	return &created, nil
}

// Update replaces the product identified by id with product. The returned
// record is the server echo, or nil when the backend sent no body.
func (g *Gateway) Update(ctx context.Context, id string, product models.Product) (*models.Product, error) {
	const op = "update product"
	product.ID = id
	var updated models.Product
	status, body, err := g.do(ctx, http.MethodPut, "/api/updateproduct/"+url.PathEscape(id), product, &updated)
	if err != nil {
		return nil, &SaveError{Op: op, Status: status, Detail: body.Error, Err: err}
	}
	if updated.ID == "" {
		return nil, nil
	}
	return &updated, nil
}

// do performs one request. A non-2xx response yields the status, the decoded
// error body when there is one, and a non-nil error.
func (g *Gateway) do(ctx context.Context, method, path string, in, out any) (int, errorBody, error) {
	var errBody errorBody

	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, errBody, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return 0, errBody, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.log.Debug("inventory request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return 0, errBody, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, errBody, fmt.Errorf("failed to read response: %w", err)
	}

	g.log.Debug("inventory request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = json.Unmarshal(data, &errBody)
		return resp.StatusCode, errBody, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, errBody, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, errBody, nil
}
