// Package orders proxies order history and checkout to the backend API.
// Orders exist only for authenticated sessions; checkout drains the remote
// cart server-side.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/waving/storefront/internal/cart/domain"
	"github.com/waving/storefront/internal/cart/gateway"
)

// OrderItem is one purchased line, with the price locked at checkout time.
type OrderItem struct {
	ID        string                 `json:"id"`
	ProductID string                 `json:"productId"`
	Quantity  int                    `json:"quantity"`
	Price     float64                `json:"price"`
	Product   domain.ProductSnapshot `json:"product"`
}

// Order is the backend's order record.
type Order struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	Total     float64     `json:"total"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// OrderPage is one page of orders plus pagination metadata.
type OrderPage struct {
	Items []Order         `json:"data"`
	Meta  domain.PageMeta `json:"meta"`
}

// Client talks to the backend order endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// GetOrders lists the session's orders, optionally filtered by status.
func (c *Client) GetOrders(ctx context.Context, token string, page, limit int, status string) (*OrderPage, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if status != "" {
		params.Set("status", status)
	}

	endpoint := c.baseURL + "/orders"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var result OrderPage
	if err := c.do(ctx, http.MethodGet, endpoint, token, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrder fetches one order by ID.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*Order, error) {
	var result Order
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/orders/"+orderID, token, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateOrder checks out the given cart lines. The backend drains the
// purchased lines from the remote cart as part of order creation.
func (c *Client) CreateOrder(ctx context.Context, token string, cartProductIDs []string) (*Order, error) {
	body := struct {
		CartProductIDs []string `json:"cartProductIds"`
	}{CartProductIDs: cartProductIDs}

	var result Order
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/orders", token, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, endpoint, token string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &payload)
		return &gateway.RemoteCartError{StatusCode: resp.StatusCode, Message: payload.Message}
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode order response: %w", err)
	}
	return nil
}
