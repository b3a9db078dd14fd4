package service

import (
	"context"

	"github.com/waving/storefront/internal/cart/domain"
	"github.com/waving/storefront/internal/cart/gateway"
	"github.com/waving/storefront/pkg/logger"
)

// remotePageSize is the page size used when the adapter has to walk the
// remote cart (full listing, product-ID resolution).
const remotePageSize = 50

// maxRemotePages bounds the listing walk so a misbehaving backend cannot
// keep the adapter paging forever.
const maxRemotePages = 100

// remoteBackend adapts the cart gateway to the CartBackend capability set.
// Mutations arrive keyed by product ID; the adapter resolves the
// backend-assigned line ID by walking the remote cart.
type remoteBackend struct {
	carts *gateway.CartClient
	token string
}

func (b *remoteBackend) List(ctx context.Context) ([]domain.LineItem, error) {
	var items []domain.LineItem
	for page := 1; page <= maxRemotePages; page++ {
		result, err := b.carts.GetPage(ctx, b.token, page, remotePageSize)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if !result.Meta.HasNextPage {
			break
		}
	}
	return items, nil
}

func (b *remoteBackend) Add(ctx context.Context, item domain.LineItem) error {
	// The backend merges by product ID server-side; the local snapshot and
	// local ID are not sent.
	_, err := b.carts.AddItem(ctx, b.token, item.ProductID, item.Quantity)
	return err
}

func (b *remoteBackend) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	item, err := b.find(ctx, productID)
	if err != nil {
		return err
	}
	if item == nil {
		logger.Warn(ctx).Str("product_id", productID).Msg("Remote cart line not found for update")
		return nil
	}
	_, err = b.carts.UpdateItem(ctx, b.token, item.ID, quantity)
	return err
}

func (b *remoteBackend) Remove(ctx context.Context, productID string) error {
	item, err := b.find(ctx, productID)
	if err != nil {
		return err
	}
	if item == nil {
		logger.Warn(ctx).Str("product_id", productID).Msg("Remote cart line not found for removal")
		return nil
	}
	return b.carts.RemoveItem(ctx, b.token, item.ID)
}

func (b *remoteBackend) Clear(ctx context.Context) error {
	return b.carts.Clear(ctx, b.token)
}

func (b *remoteBackend) TotalCount(ctx context.Context) (int, error) {
	return b.carts.GetTotalCount(ctx, b.token)
}

func (b *remoteBackend) find(ctx context.Context, productID string) (*domain.LineItem, error) {
	for page := 1; page <= maxRemotePages; page++ {
		result, err := b.carts.GetPage(ctx, b.token, page, remotePageSize)
		if err != nil {
			return nil, err
		}
		for i := range result.Items {
			if result.Items[i].ProductID == productID {
				return &result.Items[i], nil
			}
		}
		if !result.Meta.HasNextPage {
			break
		}
	}
	return nil, nil
}
