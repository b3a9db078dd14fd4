package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	cartHTTP "github.com/waving/storefront/internal/cart/delivery/http"
	"github.com/waving/storefront/internal/cart/reconcile"
	"github.com/waving/storefront/pkg/logger"
)

// CartSyncFailedMessage is surfaced when login succeeds but the local cart
// could not be merged. The local cart is retained and the next login retries.
const CartSyncFailedMessage = "Your saved cart could not be merged; it will be retried on your next login"

// Handler proxies login and registration to the backend and reconciles the
// guest cart into the account cart on success.
type Handler struct {
	client     *Client
	reconciler *reconcile.Reconciler
}

func NewHandler(client *Client, reconciler *reconcile.Reconciler) *Handler {
	return &Handler{client: client, reconciler: reconciler}
}

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.Login).Methods("POST")
	router.HandleFunc("/auth/register", h.Register).Methods("POST")
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondJSON(w, http.StatusBadRequest, response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	result, err := h.client.Login(r.Context(), creds)
	if err != nil {
		h.respondAuthError(w, r, err, "Login failed")
		return
	}

	h.respondAuthenticated(w, r, result)
}

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var reg Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		respondJSON(w, http.StatusBadRequest, response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	result, err := h.client.Register(r.Context(), reg)
	if err != nil {
		h.respondAuthError(w, r, err, "Registration failed")
		return
	}

	h.respondAuthenticated(w, r, result)
}

// respondAuthenticated runs cart reconciliation for the freshly authenticated
// session, then returns the backend's auth payload. A reconciliation failure
// does not fail the login: the local cart is preserved and the response
// carries a user-facing notice instead.
func (h *Handler) respondAuthenticated(w http.ResponseWriter, r *http.Request, result *AuthResponse) {
	sess := cartHTTP.SessionFromContext(r.Context())
	sess.Token = result.AccessToken
	sess.UserID = result.User.ID

	message := ""
	if err := h.reconciler.Reconcile(r.Context(), sess); err != nil {
		logger.Error(r.Context()).Err(err).Str("user_id", sess.UserID).Msg("Cart reconciliation after login failed")
		message = CartSyncFailedMessage
	}

	respondJSON(w, http.StatusOK, response{
		Success: true,
		Message: message,
		Data:    result,
	})
}

func (h *Handler) respondAuthError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var authErr *Error
	if errors.As(err, &authErr) {
		status := http.StatusBadGateway
		if authErr.StatusCode >= 400 && authErr.StatusCode < 500 {
			status = authErr.StatusCode
		}
		message := authErr.Message
		if message == "" {
			message = fallback
		}
		respondJSON(w, status, response{
			Success: false,
			Error:   message,
		})
		return
	}

	logger.Error(r.Context()).Err(err).Msg(fallback)
	respondJSON(w, http.StatusInternalServerError, response{
		Success: false,
		Error:   fallback,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
