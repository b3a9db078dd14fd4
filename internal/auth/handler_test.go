package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartHTTP "github.com/waving/storefront/internal/cart/delivery/http"
	"github.com/waving/storefront/internal/cart/domain"
	"github.com/waving/storefront/internal/cart/events"
	"github.com/waving/storefront/internal/cart/gateway"
	"github.com/waving/storefront/internal/cart/localstore"
	"github.com/waving/storefront/internal/cart/reconcile"
)

type authFixture struct {
	router    *mux.Router
	stores    *localstore.Stores
	bus       *events.Bus
	bulkCalls *int
}

// newAuthFixture wires the login path against a fake backend that issues a
// token and accepts bulk cart merges. failBulk makes the merge endpoint fail.
func newAuthFixture(t *testing.T, failBulk bool) *authFixture {
	t.Helper()

	bulkCalls := 0
	backendMux := http.NewServeMux()
	backendMux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "correct" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "invalid credentials"}`))
			return
		}
		json.NewEncoder(w).Encode(AuthResponse{
			AccessToken: "backend-token",
			User:        User{ID: "u1", Name: "Ada", Email: creds.Email, Role: "user"},
		})
	})
	backendMux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthResponse{
			AccessToken: "backend-token",
			User:        User{ID: "u2", Name: "New", Role: "user"},
		})
	})
	backendMux.HandleFunc("POST /cart/items/bulk", func(w http.ResponseWriter, r *http.Request) {
		bulkCalls++
		if failBulk {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message": "backend unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	backend := httptest.NewServer(backendMux)
	t.Cleanup(backend.Close)

	stores := localstore.NewStores(localstore.NewMemoryStorage())
	bus := events.NewBus()
	reconciler := reconcile.NewReconciler(stores, gateway.NewCartClient(backend.URL, time.Second), bus)
	handler := NewHandler(NewClient(backend.URL, time.Second), reconciler)

	router := mux.NewRouter()
	router.Use(cartHTTP.SessionMiddleware)
	handler.RegisterRoutes(router)

	return &authFixture{router: router, stores: stores, bus: bus, bulkCalls: &bulkCalls}
}

func (f *authFixture) do(t *testing.T, path, body, guestID string) (*httptest.ResponseRecorder, response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if guestID != "" {
		req.AddCookie(&http.Cookie{Name: cartHTTP.GuestCookieName, Value: guestID})
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestLoginMergesLocalCart(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.stores.ForGuest("g1").Add(ctx, domain.LineItem{ID: "l1", ProductID: "p1", Quantity: 2}))

	var published []events.CartChanged
	f.bus.Subscribe(func(ev events.CartChanged) { published = append(published, ev) })

	rec, resp := f.do(t, "/auth/login", `{"email":"ada@example.com","password":"correct"}`, "g1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Message)

	raw, _ := json.Marshal(resp.Data)
	var result AuthResponse
	require.NoError(t, json.Unmarshal(raw, &result))
	assert.Equal(t, "backend-token", result.AccessToken)
	assert.Equal(t, "u1", result.User.ID)

	assert.Equal(t, 1, *f.bulkCalls)

	items, _ := f.stores.ForGuest("g1").List(ctx)
	assert.Empty(t, items)

	require.Len(t, published, 1)
	assert.Equal(t, events.ReasonReconciled, published[0].Reason)
	assert.Equal(t, "u1", published[0].UserID)
}

func TestLoginSucceedsWhenCartMergeFails(t *testing.T) {
	f := newAuthFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.stores.ForGuest("g1").Add(ctx, domain.LineItem{ID: "l1", ProductID: "p1", Quantity: 2}))

	rec, resp := f.do(t, "/auth/login", `{"email":"ada@example.com","password":"correct"}`, "g1")

	// Login still succeeds; the failure surfaces as a notice only
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, CartSyncFailedMessage, resp.Message)

	// The local cart is preserved for the next attempt
	items, _ := f.stores.ForGuest("g1").List(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, false)

	rec, resp := f.do(t, "/auth/login", `{"email":"ada@example.com","password":"wrong"}`, "g1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid credentials", resp.Error)

	assert.Zero(t, *f.bulkCalls)
}

func TestLoginEmptyLocalCartSkipsMerge(t *testing.T) {
	f := newAuthFixture(t, false)

	rec, resp := f.do(t, "/auth/login", `{"email":"ada@example.com","password":"correct"}`, "g1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Zero(t, *f.bulkCalls)
}

func TestRegisterMergesLocalCart(t *testing.T) {
	f := newAuthFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.stores.ForGuest("g1").Add(ctx, domain.LineItem{ID: "l1", ProductID: "p1", Quantity: 1}))

	rec, resp := f.do(t, "/auth/register", `{"name":"New","email":"new@example.com","password":"pw"}`, "g1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, *f.bulkCalls)

	items, _ := f.stores.ForGuest("g1").List(ctx)
	assert.Empty(t, items)
}

func TestLoginInvalidBody(t *testing.T) {
	f := newAuthFixture(t, false)

	rec, resp := f.do(t, "/auth/login", `{not json`, "g1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}
