package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/waving/storefront/internal/cart/domain"
	"github.com/waving/storefront/internal/cart/gateway"
	"github.com/waving/storefront/internal/cart/service"
	"github.com/waving/storefront/pkg/logger"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_requests_total",
			Help: "Total number of cart requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_cart_request_duration_seconds",
			Help:    "Duration of cart requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	requestSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "storefront_cart_request_duration_summary",
			Help: "Summary of cart request durations with percentiles",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.95: 0.01,
				0.99: 0.001,
			},
			MaxAge: 10 * time.Minute,
		},
		[]string{"method", "endpoint"},
	)
)

func init() {
	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(requestSummary)
}

// CartHandler exposes the cart façade over HTTP.
type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *CartHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()

		requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		requestSummary.WithLabelValues(r.Method, endpoint).Observe(duration)
	}
}

func (h *CartHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/cart", h.metricsMiddleware("/cart", h.GetCart)).Methods("GET")
	router.HandleFunc("/cart/total", h.metricsMiddleware("/cart/total", h.GetTotal)).Methods("GET")
	router.HandleFunc("/cart/summary", h.metricsMiddleware("/cart/summary", h.GetSummary)).Methods("GET")
	router.HandleFunc("/cart/items", h.metricsMiddleware("/cart/items", h.AddItem)).Methods("POST")
	router.HandleFunc("/cart/items/{productId}", h.metricsMiddleware("/cart/items/{productId}", h.UpdateItem)).Methods("PUT")
	router.HandleFunc("/cart/items/{productId}", h.metricsMiddleware("/cart/items/{productId}", h.RemoveItem)).Methods("DELETE")
	router.HandleFunc("/cart", h.metricsMiddleware("/cart", h.ClearCart)).Methods("DELETE")
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.carts.GetCart(r.Context(), SessionFromContext(r.Context()), page, limit)
	if err != nil {
		h.respondCartError(w, r, err, "Failed to load cart")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// GetTotal handles GET /cart/total
func (h *CartHandler) GetTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.carts.TotalCount(r.Context(), SessionFromContext(r.Context()))
	if err != nil {
		h.respondCartError(w, r, err, "Failed to load cart total")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    map[string]int{"totalItems": total},
	})
}

// GetSummary handles GET /cart/summary
func (h *CartHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	totals, err := h.carts.GetTotals(r.Context(), SessionFromContext(r.Context()))
	if err != nil {
		h.respondCartError(w, r, err, "Failed to load cart summary")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    totals,
	})
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}
	if req.ProductID == "" {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "productId is required",
		})
		return
	}

	err := h.carts.AddToCart(r.Context(), SessionFromContext(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		h.respondCartError(w, r, err, "Failed to add item to cart")
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Item added to cart",
	})
}

// UpdateItem handles PUT /cart/items/{productId}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["productId"]

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	err := h.carts.UpdateQuantity(r.Context(), SessionFromContext(r.Context()), productID, req.Quantity)
	if err != nil {
		h.respondCartError(w, r, err, "Failed to update cart item")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Cart item updated",
	})
}

// RemoveItem handles DELETE /cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["productId"]

	err := h.carts.RemoveItem(r.Context(), SessionFromContext(r.Context()), productID)
	if err != nil {
		h.respondCartError(w, r, err, "Failed to remove cart item")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Cart item removed",
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	err := h.carts.ClearCart(r.Context(), SessionFromContext(r.Context()))
	if err != nil {
		h.respondCartError(w, r, err, "Failed to clear cart")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Cart cleared",
	})
}

// respondCartError maps façade errors onto HTTP responses. Backend failures
// keep the backend's message so the UI can show it; nothing is retried here.
func (h *CartHandler) respondCartError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, domain.ErrInvalidQuantity) {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

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
		respondJSON(w, status, Response{
			Success: false,
			Error:   message,
		})
		return
	}

	logger.Error(r.Context()).Err(err).Msg(fallback)
	respondJSON(w, http.StatusInternalServerError, Response{
		Success: false,
		Error:   fallback,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
