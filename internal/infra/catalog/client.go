package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

const maxBodyBytes = 8 << 20

// 商品カタログ（外部REST API）のクライアント
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// DI
func NewClient(baseURL string, token string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// GET /products
// {"data":[...]} と素の配列の両方を受け付ける
func (c *Client) List(ctx context.Context) ([]model.Product, error) {
	body, err := c.get(ctx, "/products")
	if err != nil {
		return nil, err
	}

	var payloads []model.ProductPayload
	if err := decodeEnvelope(body, &payloads); err != nil {
		return nil, fmt.Errorf("%w: decode products: %v", repo.ErrUnavailable, err)
	}

	out := make([]model.Product, 0, len(payloads))
	for _, p := range payloads {
		snap := p.Coerce()
		if !snap.Valid() {
			c.logger.Warn("skip invalid catalog product", zap.Int64("product_id", p.ID))
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

// GET /products/{id}
func (c *Client) FindByID(ctx context.Context, id int64) (model.Product, error) {
	body, err := c.get(ctx, "/products/"+strconv.FormatInt(id, 10))
	if err != nil {
		return model.Product{}, err
	}

	var payload model.ProductPayload
	if err := decodeEnvelope(body, &payload); err != nil {
		return model.Product{}, fmt.Errorf("%w: decode product: %v", repo.ErrUnavailable, err)
	}

	snap := payload.Coerce()
	if !snap.Valid() {
		return model.Product{}, repo.ErrNotFound
	}
	return snap, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("catalog request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return nil, repo.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", repo.ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repo.ErrUnavailable, err)
	}
	return body, nil
}

// {"data": X} なら X を、そうでなければ全体を v に入れる
func decodeEnvelope(body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return err
		}
		if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			return json.Unmarshal(env.Data, v)
		}
	}
	return json.Unmarshal(trimmed, v)
}
