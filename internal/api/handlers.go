package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Odenfis/sedimApp/internal/auth"
	"github.com/Odenfis/sedimApp/internal/equipment"
	"github.com/Odenfis/sedimApp/internal/log"
	"github.com/Odenfis/sedimApp/internal/storage"
)

const maxBodyBytes = 4 << 20

// Handler handles HTTP requests
type Handler struct {
	equipment equipment.Store
	editor    *equipment.Editor
	storage   storage.Storage
	auth      *auth.Authenticator
	sessions  *auth.SessionManager
	throttle  *auth.LoginThrottle
	validate  *validator.Validate

	trustProxy bool
}

// Option configures a Handler
type Option func(*Handler)

// WithTrustProxy makes the login throttle key on the forwarded client IP.
// Only enable it when every request arrives through a reverse proxy that
// overwrites X-Forwarded-For.
func WithTrustProxy(trust bool) Option {
	return func(h *Handler) { h.trustProxy = trust }
}

// NewHandler creates a new API handler
func NewHandler(eq equipment.Store, s storage.Storage, sessions *auth.SessionManager, opts ...Option) *Handler {
	h := &Handler{
		equipment: eq,
		editor:    equipment.NewEditor(eq),
		storage:   s,
		auth:      auth.NewAuthenticator(s),
		sessions:  sessions,
		throttle:  auth.NewLoginThrottle(12*time.Second, 5),
		validate:  validator.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Public
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("POST /api/login", h.login)
	mux.HandleFunc("POST /api/logout", h.logout)
	mux.HandleFunc("GET /api/session", h.session)

	// Equipment document
	mux.Handle("GET /api/data", h.protected(h.getData))
	mux.Handle("POST /api/data", h.protected(h.saveData))

	// Equipment editor
	mux.Handle("PUT /api/data/areas/{area}", h.protected(h.upsertArea))
	mux.Handle("DELETE /api/data/areas/{area}", h.protected(h.deleteArea))
	mux.Handle("PUT /api/data/areas/{area}/locations/{loc}", h.protected(h.upsertLocation))
	mux.Handle("DELETE /api/data/areas/{area}/locations/{loc}", h.protected(h.deleteLocation))
	mux.Handle("PUT /api/data/areas/{area}/locations/{loc}/computers/{comp}", h.protected(h.upsertComputer))
	mux.Handle("DELETE /api/data/areas/{area}/locations/{loc}/computers/{comp}", h.protected(h.deleteComputer))

	// Users
	mux.Handle("GET /api/users", h.protected(h.listUsers))
	mux.Handle("POST /api/users", h.protected(h.createUser))
	mux.Handle("DELETE /api/users/{id}", h.protected(h.deleteUser))

	// Prices
	mux.Handle("GET /api/precios/{empresa}", h.protected(h.listPrices))
	mux.Handle("PUT /api/precios/{codpro}", h.protected(h.updatePrices))
}

func (h *Handler) protected(fn http.HandlerFunc) http.Handler {
	return auth.RequireSession(h.sessions, fn)
}

// healthz handles GET /healthz
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON reads a bounded JSON body into dst
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
		return false
	}
	return true
}

// validationMessage turns validator output into a short client message
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return strings.ToLower(fe.Field()) + ": " + fe.Tag()
	}
	return err.Error()
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"message": message})
}

// internalError logs the error and writes a generic 500 response
func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("Internal Server Error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "Error interno del servidor")
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}
