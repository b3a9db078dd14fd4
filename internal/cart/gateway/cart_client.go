// Package gateway holds the typed HTTP clients for the backend REST API: the
// cart resource and the product resource. The clients map requests and
// responses only; merge semantics and auth-state selection live elsewhere.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/waving/storefront/internal/cart/domain"
	"github.com/waving/storefront/pkg/logger"
)

// CartClient talks to the backend cart endpoints on behalf of an
// authenticated session. The bearer token is passed per call because one
// client instance serves all sessions.
type CartClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCartClient(baseURL string, timeout time.Duration) *CartClient {
	return &CartClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// GetPage fetches one page of the remote cart.
func (c *CartClient) GetPage(ctx context.Context, token string, page, limit int) (*domain.CartPage, error) {
	url := fmt.Sprintf("%s/cart?page=%d&limit=%d", c.baseURL, page, limit)

	var result domain.CartPage
	if err := c.do(ctx, http.MethodGet, url, token, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTotalCount fetches the backend's cart item count, used for badge counts
// without a full cart fetch.
func (c *CartClient) GetTotalCount(ctx context.Context, token string) (int, error) {
	var result struct {
		TotalItems int `json:"totalItems"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/cart/total", token, nil, &result); err != nil {
		return 0, err
	}
	return result.TotalItems, nil
}

// AddItem adds a product to the remote cart. The backend merges by product
// ID, so adding an already-present product returns the incremented line.
func (c *CartClient) AddItem(ctx context.Context, token, productID string, quantity int) (*domain.LineItem, error) {
	body := domain.BulkEntry{ProductID: productID, Quantity: quantity}

	var item domain.LineItem
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/cart/items", token, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// AddBulk submits many lines in one round trip. Used only by cart
// reconciliation after login.
func (c *CartClient) AddBulk(ctx context.Context, token string, entries []domain.BulkEntry) error {
	body := struct {
		Items []domain.BulkEntry `json:"items"`
	}{Items: entries}

	return c.do(ctx, http.MethodPost, c.baseURL+"/cart/items/bulk", token, body, nil)
}

// UpdateItem overwrites the quantity of a remote line, keyed by the
// backend-assigned item ID.
func (c *CartClient) UpdateItem(ctx context.Context, token, itemID string, quantity int) (*domain.LineItem, error) {
	body := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}

	var item domain.LineItem
	if err := c.do(ctx, http.MethodPut, c.baseURL+"/cart/items/"+itemID, token, body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// RemoveItem deletes a remote line, keyed by the backend-assigned item ID.
func (c *CartClient) RemoveItem(ctx context.Context, token, itemID string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/cart/items/"+itemID, token, nil, nil)
}

// Clear deletes the session's entire remote cart.
func (c *CartClient) Clear(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/cart", token, nil, nil)
}

func (c *CartClient) do(ctx context.Context, method, url, token string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cart backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remoteErr := &RemoteCartError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		logger.Warn(ctx).
			Str("method", method).
			Str("url", url).
			Int("status", resp.StatusCode).
			Str("message", remoteErr.Message).
			Msg("Cart backend call failed")
		return remoteErr
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode cart backend response: %w", err)
	}
	return nil
}

// readErrorMessage extracts the backend's error message from a failure body.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
