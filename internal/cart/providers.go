// Package cart assembles the cart feature: local stores, backend gateway,
// totals cache, reconciliation and the HTTP handler.
package cart

import (
	"github.com/waving/storefront/internal/cart/cache"
	cartHTTP "github.com/waving/storefront/internal/cart/delivery/http"
	"github.com/waving/storefront/internal/cart/events"
	"github.com/waving/storefront/internal/cart/gateway"
	"github.com/waving/storefront/internal/cart/localstore"
	"github.com/waving/storefront/internal/cart/reconcile"
	"github.com/waving/storefront/internal/cart/service"
	"github.com/waving/storefront/internal/config"
)

// ProvideCartClient provides the backend cart client
func ProvideCartClient(cfg *config.Config) *gateway.CartClient {
	return gateway.NewCartClient(cfg.BackendURL, cfg.RequestTimeout)
}

// ProvideProductClient provides the backend product client
func ProvideProductClient(cfg *config.Config) *gateway.ProductClient {
	return gateway.NewProductClient(cfg.BackendURL, cfg.RequestTimeout)
}

// ProvideStores provides the per-guest local cart stores
func ProvideStores(storage localstore.Storage) *localstore.Stores {
	return localstore.NewStores(storage)
}

// ProvideCartService provides the cart façade
func ProvideCartService(
	stores *localstore.Stores,
	carts *gateway.CartClient,
	products *gateway.ProductClient,
	totals cache.TotalCache,
	bus *events.Bus,
) *service.CartService {
	return service.NewCartService(stores, carts, products, totals, bus)
}

// ProvideReconciler provides the cart reconciliation service
func ProvideReconciler(stores *localstore.Stores, carts *gateway.CartClient, bus *events.Bus) *reconcile.Reconciler {
	return reconcile.NewReconciler(stores, carts, bus)
}

// ProvideCartHandler provides the HTTP handler
func ProvideCartHandler(carts *service.CartService) *cartHTTP.CartHandler {
	return cartHTTP.NewCartHandler(carts)
}
