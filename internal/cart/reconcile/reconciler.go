// Package reconcile migrates an anonymous visitor's local cart into the
// authenticated account's remote cart, once per successful login or
// registration.
package reconcile

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/waving/storefront/internal/cart/domain"
	"github.com/waving/storefront/internal/cart/events"
	"github.com/waving/storefront/internal/cart/gateway"
	"github.com/waving/storefront/internal/cart/localstore"
	"github.com/waving/storefront/pkg/logger"
)

var reconciliations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_cart_reconciliations_total",
		Help: "Cart reconciliation attempts by outcome",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(reconciliations)
}

// Reconciler drains a guest's local cart into the remote cart via a single
// bulk add, clearing local state only after the remote call succeeds.
type Reconciler struct {
	stores *localstore.Stores
	carts  *gateway.CartClient
	bus    *events.Bus
}

func NewReconciler(stores *localstore.Stores, carts *gateway.CartClient, bus *events.Bus) *Reconciler {
	return &Reconciler{stores: stores, carts: carts, bus: bus}
}

// Reconcile submits the session's local cart lines to the backend. On failure
// the local lines are retained so nothing is silently lost; the next login
// retries the same migration. A CartChanged event is published on success and
// on the empty-cart skip, so cached reads refresh either way (the account may
// hold a remote cart from a previous session).
func (r *Reconciler) Reconcile(ctx context.Context, sess domain.Session) error {
	store := r.stores.ForGuest(sess.GuestID)

	items, _ := store.List(ctx)
	if len(items) == 0 {
		r.bus.Publish(events.CartChanged{
			GuestID: sess.GuestID,
			UserID:  sess.UserID,
			Reason:  events.ReasonReconciled,
		})
		return nil
	}

	entries := make([]domain.BulkEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, domain.BulkEntry{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := r.carts.AddBulk(ctx, sess.Token, entries); err != nil {
		reconciliations.WithLabelValues("failure").Inc()
		logger.Error(ctx).
			Err(err).
			Str("guest_id", sess.GuestID).
			Int("items", len(entries)).
			Msg("Cart reconciliation failed, local cart retained")
		return fmt.Errorf("failed to merge local cart: %w", err)
	}

	// Only clear after confirmed success
	store.Clear(ctx)
	reconciliations.WithLabelValues("success").Inc()

	logger.Info(ctx).
		Str("guest_id", sess.GuestID).
		Str("user_id", sess.UserID).
		Int("items", len(entries)).
		Msg("Local cart merged into account cart")

	r.bus.Publish(events.CartChanged{
		GuestID:   sess.GuestID,
		UserID:    sess.UserID,
		Reason:    events.ReasonReconciled,
		ItemCount: len(entries),
	})
	return nil
}
