package orders

import (
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
	"github.com/waving/storefront/internal/cart/events"
	"github.com/waving/storefront/pkg/auth"
)

type ordersFixture struct {
	router  *mux.Router
	bus     *events.Bus
	backend *http.ServeMux
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()

	backendMux := http.NewServeMux()
	backendMux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(OrderPage{
			Items: []Order{{ID: "o1", Status: "pending", Total: 42}},
		})
	})
	backendMux.HandleFunc("GET /orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "order not found"}`))
			return
		}
		json.NewEncoder(w).Encode(Order{ID: r.PathValue("id"), Status: "delivered"})
	})
	backendMux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			CartProductIDs []string `json:"cartProductIds"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Order{ID: "o-new", Status: "pending", Total: float64(10 * len(body.CartProductIDs))})
	})
	backend := httptest.NewServer(backendMux)
	t.Cleanup(backend.Close)

	bus := events.NewBus()
	handler := NewHandler(NewClient(backend.URL, time.Second), bus)

	router := mux.NewRouter()
	router.Use(cartHTTP.SessionMiddleware)
	handler.RegisterRoutes(router)

	return &ordersFixture{router: router, bus: bus, backend: backendMux}
}

func (f *ordersFixture) do(t *testing.T, method, path, body string, authenticated bool) (*httptest.ResponseRecorder, response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.AddCookie(&http.Cookie{Name: cartHTTP.GuestCookieName, Value: "g1"})
	if authenticated {
		token, err := auth.GenerateToken("u1", "u1@example.com", "user")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestOrdersRequireAuthentication(t *testing.T) {
	f := newOrdersFixture(t)

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodGet, "/orders", ""},
		{http.MethodGet, "/orders/o1", ""},
		{http.MethodPost, "/orders", `{"cartProductIds":["p1"]}`},
	} {
		rec, resp := f.do(t, tc.method, tc.path, tc.body, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
		assert.False(t, resp.Success)
	}
}

func TestListOrders(t *testing.T) {
	f := newOrdersFixture(t)

	rec, resp := f.do(t, http.MethodGet, "/orders?page=1&limit=10&status=pending", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	raw, _ := json.Marshal(resp.Data)
	var page OrderPage
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "o1", page.Items[0].ID)
}

func TestGetOrder(t *testing.T) {
	f := newOrdersFixture(t)

	rec, resp := f.do(t, http.MethodGet, "/orders/o7", "", true)
	require.Equal(t, http.StatusOK, rec.Code)

	raw, _ := json.Marshal(resp.Data)
	var order Order
	require.NoError(t, json.Unmarshal(raw, &order))
	assert.Equal(t, "o7", order.ID)
	assert.Equal(t, "delivered", order.Status)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newOrdersFixture(t)

	rec, resp := f.do(t, http.MethodGet, "/orders/missing", "", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order not found", resp.Error)
}

func TestCreateOrderPublishesCartChanged(t *testing.T) {
	f := newOrdersFixture(t)

	var published []events.CartChanged
	f.bus.Subscribe(func(ev events.CartChanged) { published = append(published, ev) })

	rec, resp := f.do(t, http.MethodPost, "/orders", `{"cartProductIds":["p1","p2"]}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, resp.Success)

	raw, _ := json.Marshal(resp.Data)
	var order Order
	require.NoError(t, json.Unmarshal(raw, &order))
	assert.Equal(t, "o-new", order.ID)

	require.Len(t, published, 1)
	assert.Equal(t, events.ReasonCheckedOut, published[0].Reason)
	assert.Equal(t, "u1", published[0].UserID)
	assert.Equal(t, 2, published[0].ItemCount)
}

func TestCreateOrderRequiresProductIDs(t *testing.T) {
	f := newOrdersFixture(t)

	rec, resp := f.do(t, http.MethodPost, "/orders", `{"cartProductIds":[]}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}
