// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"strings"
)

// CatalogHandler serves catalog metadata: genres, store links, and
// item details.
type CatalogHandler struct {
	svc Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(svc Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// HandleGetGenres handles GET /genres requests.
func (h *CatalogHandler) HandleGetGenres(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_genres"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	genres, err := h.svc.Genres(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "upstream_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

// HandleGetStores handles GET /stores?search=NAME requests. Lookups
// are best effort, so the response is always 200 with a possibly
// empty list.
func (h *CatalogHandler) HandleGetStores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_stores"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	name := r.URL.Query().Get("search")
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.StoreLinks(r.Context(), name))
}

// HandleGetDetail handles GET /games/{id}?screenshots=true requests.
func (h *CatalogHandler) HandleGetDetail(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_detail"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/games/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	withShots := r.URL.Query().Get("screenshots") == "true"
	detail, err := h.svc.Detail(r.Context(), id, withShots)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusBadGateway, "upstream_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
