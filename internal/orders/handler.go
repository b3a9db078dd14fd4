package orders

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	cartHTTP "github.com/waving/storefront/internal/cart/delivery/http"
	"github.com/waving/storefront/internal/cart/events"
	"github.com/waving/storefront/internal/cart/gateway"
	"github.com/waving/storefront/pkg/logger"
)

// Handler exposes order history and checkout over HTTP. All routes require
// an authenticated session.
type Handler struct {
	client *Client
	bus    *events.Bus
}

func NewHandler(client *Client, bus *events.Bus) *Handler {
	return &Handler{client: client, bus: bus}
}

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/orders", h.ListOrders).Methods("GET")
	router.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET")
	router.HandleFunc("/orders", h.CreateOrder).Methods("POST")
}

// ListOrders handles GET /orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sess := cartHTTP.SessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondJSON(w, http.StatusUnauthorized, response{Success: false, Error: "Authentication required"})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := r.URL.Query().Get("status")

	result, err := h.client.GetOrders(r.Context(), sess.Token, page, limit, status)
	if err != nil {
		h.respondOrderError(w, r, err, "Failed to load orders")
		return
	}

	respondJSON(w, http.StatusOK, response{Success: true, Data: result})
}

// GetOrder handles GET /orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	sess := cartHTTP.SessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondJSON(w, http.StatusUnauthorized, response{Success: false, Error: "Authentication required"})
		return
	}

	result, err := h.client.GetOrder(r.Context(), sess.Token, mux.Vars(r)["id"])
	if err != nil {
		h.respondOrderError(w, r, err, "Failed to load order")
		return
	}

	respondJSON(w, http.StatusOK, response{Success: true, Data: result})
}

// CreateOrder handles POST /orders. The backend drains the purchased lines
// from the cart, so a CartChanged event is published to refresh cached reads.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	sess := cartHTTP.SessionFromContext(r.Context())
	if !sess.Authenticated() {
		respondJSON(w, http.StatusUnauthorized, response{Success: false, Error: "Authentication required"})
		return
	}

	var req struct {
		CartProductIDs []string `json:"cartProductIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, response{Success: false, Error: "Invalid request body"})
		return
	}
	if len(req.CartProductIDs) == 0 {
		respondJSON(w, http.StatusBadRequest, response{Success: false, Error: "cartProductIds is required"})
		return
	}

	order, err := h.client.CreateOrder(r.Context(), sess.Token, req.CartProductIDs)
	if err != nil {
		h.respondOrderError(w, r, err, "Failed to create order")
		return
	}

	h.bus.Publish(events.CartChanged{
		GuestID:   sess.GuestID,
		UserID:    sess.UserID,
		Reason:    events.ReasonCheckedOut,
		ItemCount: len(req.CartProductIDs),
	})

	respondJSON(w, http.StatusCreated, response{
		Success: true,
		Message: "Order created",
		Data:    order,
	})
}

func (h *Handler) respondOrderError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var remoteErr *gateway.RemoteCartError
	if errors.As(err, &remoteErr) {
		status := http.StatusBadGateway
		if remoteErr.StatusCode >= 400 && remoteErr.StatusCode < 500 {
			status = remoteErr.StatusCode
		}
		message := remoteErr.Message
		if message == "" {
			message = fallback
		}
		respondJSON(w, status, response{Success: false, Error: message})
		return
	}

	logger.Error(r.Context()).Err(err).Msg(fallback)
	respondJSON(w, http.StatusInternalServerError, response{Success: false, Error: fallback})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
