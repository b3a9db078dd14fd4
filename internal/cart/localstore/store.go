// Package localstore holds the anonymous visitor's cart: a JSON-serialized
// list of line items under a namespaced key in injectable key-value storage.
//
// Reads degrade to an empty cart and writes degrade to no-ops when the
// storage is unavailable; the store never returns storage errors to callers.
package localstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/waving/storefront/internal/cart/domain"
	"github.com/waving/storefront/pkg/logger"
)

// Namespace prefixes every cart key so cart data cannot collide with other
// client-local state held in the same storage.
const Namespace = "storefront:cart"

// Stores hands out per-guest cart stores over a shared Storage.
type Stores struct {
	storage Storage
}

func NewStores(storage Storage) *Stores {
	return &Stores{storage: storage}
}

// ForGuest returns the cart store for one guest session.
func (s *Stores) ForGuest(guestID string) *Store {
	return NewStore(s.storage, Namespace+":"+guestID)
}

// Store is the local cart for a single guest, persisted under one key.
type Store struct {
	storage Storage
	key     string
}

func NewStore(storage Storage, key string) *Store {
	return &Store{storage: storage, key: key}
}

// List returns all persisted lines in order. It returns an empty slice when
// nothing is persisted or the storage fails; the error is always nil.
func (s *Store) List(ctx context.Context) ([]domain.LineItem, error) {
	return s.load(ctx), nil
}

// Add appends the item, or increments the existing line's quantity when a
// line with the same product ID is already present.
func (s *Store) Add(ctx context.Context, item domain.LineItem) error {
	items := s.load(ctx)

	merged := false
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	s.persist(ctx, items)
	return nil
}

// UpdateQuantity overwrites the quantity of the line with the given product
// ID. Lines are keyed by product ID, matching the add-merge invariant; a
// missing line is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	items := s.load(ctx)

	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			s.persist(ctx, items)
			return nil
		}
	}
	return nil
}

// Remove drops the line with the given product ID.
func (s *Store) Remove(ctx context.Context, productID string) error {
	items := s.load(ctx)

	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.persist(ctx, kept)
	return nil
}

// Clear deletes the persisted entry entirely. Clearing an empty store is a
// no-op.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Remove(ctx, s.key); err != nil {
		logger.Warn(ctx).Err(err).Str("key", s.key).Msg("Failed to clear local cart")
	}
	return nil
}

// TotalCount sums quantities across all lines, for badge counts without a
// full cart fetch by the caller.
func (s *Store) TotalCount(ctx context.Context) (int, error) {
	return domain.TotalQuantity(s.load(ctx)), nil
}

func (s *Store) load(ctx context.Context) []domain.LineItem {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			logger.Warn(ctx).Err(err).Str("key", s.key).Msg("Local cart storage unavailable, treating as empty")
		}
		return []domain.LineItem{}
	}

	var items []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warn(ctx).Err(err).Str("key", s.key).Msg("Corrupt local cart payload, treating as empty")
		return []domain.LineItem{}
	}
	return items
}

func (s *Store) persist(ctx context.Context, items []domain.LineItem) {
	raw, err := json.Marshal(items)
	if err != nil {
		logger.Warn(ctx).Err(err).Str("key", s.key).Msg("Failed to serialize local cart")
		return
	}
	if err := s.storage.Set(ctx, s.key, string(raw)); err != nil {
		logger.Warn(ctx).Err(err).Str("key", s.key).Msg("Failed to persist local cart")
	}
}
