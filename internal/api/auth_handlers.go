package api

import (
	"errors"
	"net/http"

	"github.com/Odenfis/sedimApp/internal/auth"
	"github.com/Odenfis/sedimApp/internal/log"
	"github.com/Odenfis/sedimApp/internal/storage"
)

type loginRequest struct {
	Username string `json:"usuario" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// login handles POST /api/login
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ip := auth.ClientIP(r, h.trustProxy)
	if !h.throttle.Allow(ip) {
		log.Warn("Login rate limit exceeded", "ip", ip)
		h.writeError(w, http.StatusTooManyRequests, "Demasiados intentos, espere un momento")
		return
	}

	var req loginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Usuario y contraseña son obligatorios")
		return
	}

	principal, err := h.auth.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		h.writeError(w, http.StatusBadRequest, "Usuario no encontrado")
		return
	case errors.Is(err, auth.ErrInvalidPassword):
		h.writeError(w, http.StatusBadRequest, "Contraseña incorrecta")
		return
	case err != nil:
		h.internalError(w, err)
		return
	}

	if err := h.sessions.Start(w, r, principal); err != nil {
		log.Error("Failed to save session", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Error de sesión")
		return
	}

	log.Info("User logged in", "user", principal.Username, "ip", ip)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login exitoso",
		"user":    principal,
	})
}

// logout handles POST /api/logout
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		log.Warn("Failed to clear session", "error", err)
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Sesión cerrada"})
}

// session handles GET /api/session
func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	principal, err := h.sessions.Current(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "No autorizado")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"user": principal})
}
