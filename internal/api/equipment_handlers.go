package api

import (
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/Odenfis/sedimApp/internal/equipment"
	"github.com/Odenfis/sedimApp/internal/log"
	"github.com/Odenfis/sedimApp/internal/model"
)

// getData handles GET /api/data
func (h *Handler) getData(w http.ResponseWriter, r *http.Request) {
	doc, err := h.equipment.Load(r.Context())
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	version := equipment.Version(doc)
	w.Header().Set("ETag", quoteETag(version))
	if matchesETag(r.Header.Get("If-None-Match"), version) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// saveData handles POST /api/data. Without If-Match the last write wins.
func (h *Handler) saveData(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
		return
	}

	doc, err := equipment.ParseDocument(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "El documento debe tener la forma {\"areas\": [...]}")
		return
	}

	expected, err := h.ifMatchVersion(r)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	version, err := h.editor.Save(r.Context(), expected, doc)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	w.Header().Set("ETag", quoteETag(version))
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Guardado"})
}

// upsertArea handles PUT /api/data/areas/{area}
func (h *Handler) upsertArea(w http.ResponseWriter, r *http.Request) {
	area, ok := h.pathIndex(w, r, "area", true)
	if !ok {
		return
	}
	var fields model.NameFields
	if !h.decodeJSON(w, r, &fields) {
		return
	}
	h.apply(w, r, func(doc *model.Document) (*model.Document, error) {
		return equipment.UpsertArea(doc, area, fields)
	})
}

// deleteArea handles DELETE /api/data/areas/{area}
func (h *Handler) deleteArea(w http.ResponseWriter, r *http.Request) {
	area, ok := h.pathIndex(w, r, "area", false)
	if !ok {
		return
	}
	h.apply(w, r, func(doc *model.Document) (*model.Document, error) {
		return equipment.DeleteArea(doc, area)
	})
}

// upsertLocation handles PUT /api/data/areas/{area}/locations/{loc}
func (h *Handler) upsertLocation(w http.ResponseWriter, r *http.Request) {
	area, ok := h.pathIndex(w, r, "area", false)
	if !ok {
		return
	}
	loc, ok := h.pathIndex(w, r, "loc", true)
	if !ok {
		return
	}
	var fields model.NameFields
	if !h.decodeJSON(w, r, &fields) {
		return
	}
	h.apply(w, r, func(doc *model.Document) (*model.Document, error) {
		return equipment.UpsertLocation(doc, area, loc, fields)
	})
}

// deleteLocation handles DELETE /api/data/areas/{area}/locations/{loc}
func (h *Handler) deleteLocation(w http.ResponseWriter, r *http.Request) {
	area, ok := h.pathIndex(w, r, "area", false)
	if !ok {
		return
	}
	loc, ok := h.pathIndex(w, r, "loc", false)
	if !ok {
		return
	}
	h.apply(w, r, func(doc *model.Document) (*model.Document, error) {
		return equipment.DeleteLocation(doc, area, loc)
	})
}

// upsertComputer handles PUT /api/data/areas/{area}/locations/{loc}/computers/{comp}
func (h *Handler) upsertComputer(w http.ResponseWriter, r *http.Request) {
	area, ok := h.pathIndex(w, r, "area", false)
	if !ok {
		return
	}
	loc, ok := h.pathIndex(w, r, "loc", false)
	if !ok {
		return
	}
	comp, ok := h.pathIndex(w, r, "comp", true)
	if !ok {
		return
	}
	var fields model.ComputerFields
	if !h.decodeJSON(w, r, &fields) {
		return
	}
	h.apply(w, r, func(doc *model.Document) (*model.Document, error) {
		return equipment.UpsertComputer(doc, area, loc, comp, fields)
	})
}

// deleteComputer handles DELETE /api/data/areas/{area}/locations/{loc}/computers/{comp}
func (h *Handler) deleteComputer(w http.ResponseWriter, r *http.Request) {
	area, ok := h.pathIndex(w, r, "area", false)
	if !ok {
		return
	}
	loc, ok := h.pathIndex(w, r, "loc", false)
	if !ok {
		return
	}
	comp, ok := h.pathIndex(w, r, "comp", false)
	if !ok {
		return
	}
	h.apply(w, r, func(doc *model.Document) (*model.Document, error) {
		return equipment.DeleteComputer(doc, area, loc, comp)
	})
}

// apply runs op as one load, mutate, persist unit and responds with the
// resulting document
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, op equipment.Op) {
	expected, err := h.ifMatchVersion(r)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	doc, version, err := h.editor.Apply(r.Context(), expected, op)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.Header().Set("ETag", quoteETag(version))
	h.writeJSON(w, http.StatusOK, doc)
}

// pathIndex parses a position path segment; "new" is accepted when allowNew
func (h *Handler) pathIndex(w http.ResponseWriter, r *http.Request, name string, allowNew bool) (int, bool) {
	raw := r.PathValue(name)
	if allowNew && raw == "new" {
		return equipment.New, true
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		h.writeError(w, http.StatusBadRequest, "Índice inválido: "+name)
		return 0, false
	}
	return idx, true
}

// writeStoreError maps equipment errors to HTTP responses. Storage and format
// failures share one generic body; the log keeps them apart.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	var (
		indexErr      *equipment.IndexError
		validationErr *equipment.ValidationError
		conflictErr   *equipment.ConflictError
		formatErr     *equipment.FormatError
		storageErr    *equipment.StorageError
	)

	switch {
	case errors.As(err, &indexErr):
		h.writeError(w, http.StatusNotFound, indexErr.Error())
	case errors.As(err, &validationErr):
		h.writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &conflictErr):
		w.Header().Set("ETag", quoteETag(conflictErr.Actual))
		h.writeError(w, http.StatusConflict, "Los datos cambiaron; recargue e intente de nuevo")
	case errors.As(err, &formatErr):
		log.Error("Equipment document is corrupt", "kind", "format", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Error")
	case errors.As(err, &storageErr):
		log.Error("Equipment storage failed", "kind", "storage", "op", storageErr.Op, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Error")
	default:
		h.internalError(w, err)
	}
}

func quoteETag(version string) string {
	return `"` + version + `"`
}

// parseETag strips the weak prefix and quotes from an entity tag
func parseETag(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "W/")
	return strings.Trim(value, `"`)
}

// parseETags splits an If-Match or If-None-Match value into bare tags. A "*"
// anywhere in the list is returned as the only element.
func parseETags(header string) []string {
	var tags []string
	for _, part := range strings.Split(header, ",") {
		if strings.TrimSpace(part) == "*" {
			return []string{"*"}
		}
		if tag := parseETag(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// matchesETag reports whether an If-None-Match value names version
func matchesETag(header, version string) bool {
	tags := parseETags(header)
	if len(tags) == 1 && tags[0] == "*" {
		return true
	}
	return slices.Contains(tags, version)
}

// ifMatchVersion turns the If-Match header into the version the editor must
// find. An absent header or "*" accept any version. From a list, the tag that
// names the current document is used; the editor re-checks it under its lock.
func (h *Handler) ifMatchVersion(r *http.Request) (string, error) {
	tags := parseETags(r.Header.Get("If-Match"))
	switch {
	case len(tags) == 0, tags[0] == "*":
		return "", nil
	case len(tags) == 1:
		return tags[0], nil
	}

	doc, err := h.equipment.Load(r.Context())
	if err != nil {
		return "", err
	}
	if current := equipment.Version(doc); slices.Contains(tags, current) {
		return current, nil
	}
	return tags[0], nil
}
