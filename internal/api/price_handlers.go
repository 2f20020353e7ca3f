package api

import (
	"errors"
	"net/http"

	"github.com/Odenfis/sedimApp/internal/model"
	"github.com/Odenfis/sedimApp/internal/storage"
)

const maxCodProLen = 10

// listPrices handles GET /api/precios/{empresa}
func (h *Handler) listPrices(w http.ResponseWriter, r *http.Request) {
	rows, err := h.storage.ListPrices(r.Context(), r.PathValue("empresa"))
	if err != nil {
		if errors.Is(err, storage.ErrInvalidCompany) {
			h.writeError(w, http.StatusBadRequest, "Empresa no válida")
			return
		}
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

// updatePrices handles PUT /api/precios/{codpro}
func (h *Handler) updatePrices(w http.ResponseWriter, r *http.Request) {
	codpro := r.PathValue("codpro")
	if codpro == "" || len(codpro) > maxCodProLen {
		h.writeError(w, http.StatusBadRequest, "Código de producto inválido")
		return
	}

	var update model.PriceUpdate
	if !h.decodeJSON(w, r, &update) {
		return
	}
	if err := h.validate.Struct(update); err != nil {
		h.writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := h.storage.UpsertPrices(r.Context(), codpro, update.Tiers()); err != nil {
		h.internalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Precios actualizados"})
}
