package api

import (
	"errors"
	"net/http"

	"github.com/Odenfis/sedimApp/internal/auth"
	"github.com/Odenfis/sedimApp/internal/model"
	"github.com/Odenfis/sedimApp/internal/storage"
)

// listUsers handles GET /api/users
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.storage.ListUsers(r.Context())
	if err != nil {
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

// createUser handles POST /api/users
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req model.NewUserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		h.writeError(w, http.StatusBadRequest, "password: max")
		return
	}
	if err != nil {
		h.internalError(w, err)
		return
	}

	user := &model.User{Username: req.Username, Name: req.Name, PasswordHash: hash}
	if err := h.storage.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			h.writeError(w, http.StatusConflict, "El usuario ya existe")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Usuario creado",
		"user":    user,
	})
}

// deleteUser handles DELETE /api/users/{id}
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		h.writeError(w, http.StatusBadRequest, "ID de usuario inválido")
		return
	}

	if err := h.storage.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.writeError(w, http.StatusNotFound, "Usuario no encontrado")
			return
		}
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Usuario eliminado"})
}
