// Package service is the cart façade: the single interface delivery code
// depends on. It selects the local store or the remote gateway per operation
// based on session auth state, computes derived aggregates and publishes
// CartChanged events after successful mutations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/waving/storefront/internal/cart/cache"
	"github.com/waving/storefront/internal/cart/domain"
	"github.com/waving/storefront/internal/cart/events"
	"github.com/waving/storefront/internal/cart/gateway"
	"github.com/waving/storefront/internal/cart/localstore"
	"github.com/waving/storefront/pkg/logger"
)

// Totals are the derived aggregates over a cart's lines.
type Totals struct {
	TotalPrice float64 `json:"totalPrice"`
	TotalItems int     `json:"totalItems"`
}

type CartService struct {
	stores   *localstore.Stores
	carts    *gateway.CartClient
	products *gateway.ProductClient
	totals   cache.TotalCache
	bus      *events.Bus
	sfg      singleflight.Group // Prevents cache stampede
}

func NewCartService(
	stores *localstore.Stores,
	carts *gateway.CartClient,
	products *gateway.ProductClient,
	totals cache.TotalCache,
	bus *events.Bus,
) *CartService {
	s := &CartService{
		stores:   stores,
		carts:    carts,
		products: products,
		totals:   totals,
		bus:      bus,
	}
	bus.Subscribe(s.onCartChanged)
	return s
}

// backend selects the store implementation for the session. Handlers never
// branch on auth state themselves.
func (s *CartService) backend(sess domain.Session) domain.CartBackend {
	if sess.Authenticated() {
		return &remoteBackend{carts: s.carts, token: sess.Token}
	}
	return s.stores.ForGuest(sess.GuestID)
}

// AddToCart adds a product to the session's cart. For anonymous sessions the
// product details are fetched first so the stored line carries a denormalized
// snapshot; authenticated sessions go straight to the backend, which holds
// the authoritative product record.
func (s *CartService) AddToCart(ctx context.Context, sess domain.Session, productID string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}

	item := domain.LineItem{ProductID: productID, Quantity: quantity}
	if !sess.Authenticated() {
		product, err := s.products.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to fetch product %s: %w", productID, err)
		}
		item.ID = domain.NewLocalItemID()
		item.Product = *product
	}

	if err := s.backend(sess).Add(ctx, item); err != nil {
		return err
	}

	s.publish(sess, events.ReasonItemAdded, quantity)
	return nil
}

// UpdateQuantity overwrites a line's quantity, keyed by product ID. Values
// below 1 are rejected before any backend call; the UI clamps at 1 and
// removal has its own operation.
func (s *CartService) UpdateQuantity(ctx context.Context, sess domain.Session, productID string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}

	if err := s.backend(sess).UpdateQuantity(ctx, productID, quantity); err != nil {
		return err
	}

	s.publish(sess, events.ReasonQuantityUpdated, quantity)
	return nil
}

// RemoveItem drops a line from the session's cart, keyed by product ID.
func (s *CartService) RemoveItem(ctx context.Context, sess domain.Session, productID string) error {
	if err := s.backend(sess).Remove(ctx, productID); err != nil {
		return err
	}

	s.publish(sess, events.ReasonItemRemoved, 0)
	return nil
}

// ClearCart empties the session's cart.
func (s *CartService) ClearCart(ctx context.Context, sess domain.Session) error {
	if err := s.backend(sess).Clear(ctx); err != nil {
		return err
	}

	s.publish(sess, events.ReasonCleared, 0)
	return nil
}

// GetCart returns one page of the session's cart. Local carts are paginated
// in memory with the same metadata shape the backend uses.
func (s *CartService) GetCart(ctx context.Context, sess domain.Session, page, limit int) (*domain.CartPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	if sess.Authenticated() {
		return s.carts.GetPage(ctx, sess.Token, page, limit)
	}

	items, _ := s.stores.ForGuest(sess.GuestID).List(ctx)
	return paginate(items, page, limit), nil
}

// GetTotals computes the derived aggregates over all of the session's lines.
func (s *CartService) GetTotals(ctx context.Context, sess domain.Session) (*Totals, error) {
	items, err := s.backend(sess).List(ctx)
	if err != nil {
		return nil, err
	}
	return &Totals{
		TotalPrice: domain.TotalPrice(items),
		TotalItems: domain.TotalQuantity(items),
	}, nil
}

// TotalCount returns the badge count for the session's cart, served from the
// cache when fresh. Concurrent misses for the same session collapse into one
// backend call.
func (s *CartService) TotalCount(ctx context.Context, sess domain.Session) (int, error) {
	key := sess.CacheKey()

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		total, err := s.totals.Get(ctx, key)
		if err == nil {
			return total, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn(ctx).Err(err).Msg("Cart total cache read failed")
		}

		total, err = s.backend(sess).TotalCount(ctx)
		if err != nil {
			return 0, err
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.totals.Set(ctx, key, total); err != nil {
				logger.Warn(ctx).Err(err).Msg("Cart total cache write failed")
			}
		}()

		return total, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (s *CartService) publish(sess domain.Session, reason events.Reason, count int) {
	s.bus.Publish(events.CartChanged{
		GuestID:   sess.GuestID,
		UserID:    sess.UserID,
		Reason:    reason,
		ItemCount: count,
	})
}

// onCartChanged drops cached totals for the affected session keys.
func (s *CartService) onCartChanged(ev events.CartChanged) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if ev.GuestID != "" {
		if err := s.totals.Delete(ctx, "guest:"+ev.GuestID); err != nil {
			logger.Warn(ctx).Err(err).Msg("Cart total cache invalidation failed")
		}
	}
	if ev.UserID != "" {
		if err := s.totals.Delete(ctx, "user:"+ev.UserID); err != nil {
			logger.Warn(ctx).Err(err).Msg("Cart total cache invalidation failed")
		}
	}
}

func paginate(items []domain.LineItem, page, limit int) *domain.CartPage {
	total := len(items)
	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &domain.CartPage{
		Items: append([]domain.LineItem{}, items[start:end]...),
		Meta: domain.PageMeta{
			Total:           total,
			Page:            page,
			Limit:           limit,
			TotalPages:      totalPages,
			HasNextPage:     page < totalPages,
			HasPreviousPage: page > 1,
		},
	}
}
