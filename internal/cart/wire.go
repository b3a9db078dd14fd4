//go:build wireinject
// +build wireinject

package cart

import (
	"github.com/google/wire"

	"github.com/waving/storefront/internal/cart/cache"
	cartHTTP "github.com/waving/storefront/internal/cart/delivery/http"
	"github.com/waving/storefront/internal/cart/events"
	"github.com/waving/storefront/internal/cart/localstore"
	"github.com/waving/storefront/internal/cart/reconcile"
	"github.com/waving/storefront/internal/config"
)

// Wire sets
var GatewaySet = wire.NewSet(
	ProvideCartClient,
	ProvideProductClient,
)

var ServiceSet = wire.NewSet(
	ProvideStores,
	ProvideCartService,
)

// InitializeCartHandler initializes the HTTP handler with all dependencies.
// The totals cache is passed in because its implementation depends on
// whether a Redis client is configured.
func InitializeCartHandler(cfg *config.Config, storage localstore.Storage, totals cache.TotalCache, bus *events.Bus) (*cartHTTP.CartHandler, error) {
	wire.Build(
		GatewaySet,
		ServiceSet,
		ProvideCartHandler,
	)
	return nil, nil
}

// InitializeReconciler initializes the reconciliation service
func InitializeReconciler(cfg *config.Config, storage localstore.Storage, bus *events.Bus) (*reconcile.Reconciler, error) {
	wire.Build(
		ProvideCartClient,
		ProvideStores,
		ProvideReconciler,
	)
	return nil, nil
}
