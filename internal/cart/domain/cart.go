package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProductSnapshot is the denormalized product data captured when an item is
// added to an anonymous cart. It may go stale relative to the backend record
// until the next remote fetch.
type ProductSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// LineItem is one row in a cart: a product and its requested quantity.
//
// For locally-created items ID is a client-generated timestamp token; for
// items confirmed by the backend it is the backend-assigned identifier. The
// ID is not stable across the anonymous-to-authenticated transition: a local
// item's ID is discarded once it is merged remotely.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Product   ProductSnapshot `json:"product"`
}

// NewLocalItemID generates the timestamp-based token used for items created
// in the local cart.
func NewLocalItemID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// BulkEntry is the wire shape submitted during reconciliation: the local
// snapshot and local ID are dropped.
type BulkEntry struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PageMeta carries pagination metadata from the backend cart resource.
type PageMeta struct {
	Total           int  `json:"total"`
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// CartPage is one page of cart items plus pagination metadata.
type CartPage struct {
	Items []LineItem `json:"data"`
	Meta  PageMeta   `json:"meta"`
}

// Session identifies the caller of a cart operation. Every visitor carries a
// guest ID; authenticated visitors additionally carry the backend-issued
// bearer token and their user ID.
type Session struct {
	GuestID string
	UserID  string
	Token   string
}

// Authenticated reports whether the session holds a backend token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// CacheKey returns the key under which per-session derived reads are cached.
// Authenticated sessions are keyed by user so the cache survives guest-cookie
// rotation.
func (s Session) CacheKey() string {
	if s.Authenticated() {
		return "user:" + s.UserID
	}
	return "guest:" + s.GuestID
}

// CartBackend is the capability set shared by the local store and the remote
// gateway adapter. Operations are keyed by product ID uniformly; callers
// never branch on authentication state themselves.
type CartBackend interface {
	List(ctx context.Context) ([]LineItem, error)
	Add(ctx context.Context, item LineItem) error
	UpdateQuantity(ctx context.Context, productID string, quantity int) error
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
	TotalCount(ctx context.Context) (int, error)
}

// TotalPrice sums price times quantity across all lines.
func TotalPrice(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// TotalQuantity sums quantities across all lines.
func TotalQuantity(items []LineItem) int {
	var total int
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

var (
	// ErrInvalidQuantity is returned when a mutation carries a quantity
	// below 1. The guard runs before any backend call is made.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrNotAuthenticated is returned for operations that require a
	// backend session, such as checkout.
	ErrNotAuthenticated = errors.New("authentication required")
)
