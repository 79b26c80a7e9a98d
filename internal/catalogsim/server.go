package catalogsim

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/okian/gamefeed/internal/domain/model"
)

const defaultPageSize = 20

// listResponse mirrors the upstream paged envelope.
type listResponse struct {
	Count   int             `json:"count"`
	Results []model.RawItem `json:"results"`
}

// screenshotsResponse mirrors the upstream screenshots envelope.
type screenshotsResponse struct {
	Results []screenshot `json:"results"`
}

type screenshot struct {
	Image string `json:"image"`
}

// genresResponse mirrors the upstream genre list envelope.
type genresResponse struct {
	Results []model.Genre `json:"results"`
}

// Handler returns an http.Handler serving the catalog over the
// upstream API's routes:
//
//	GET /api/games?page=N&page_size=M&genres=...&search=...
//	GET /api/games/{id}
//	GET /api/games/{id}/screenshots
//	GET /api/genres
func (c *Catalog) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/games", c.handleList)
	mux.HandleFunc("/api/games/", c.handleItem)
	mux.HandleFunc("/api/genres", c.handleGenres)
	return mux
}

func (c *Catalog) handleList(w http.ResponseWriter, r *http.Request) {
	page := intParam(r, "page", 1)
	pageSize := intParam(r, "page_size", defaultPageSize)
	if page < 1 || pageSize < 1 {
		writeStatus(w, http.StatusBadRequest, "invalid page")
		return
	}

	count, results := c.Page(page, pageSize,
		r.URL.Query().Get("genres"), r.URL.Query().Get("search"))
	writeBody(w, listResponse{Count: count, Results: results})
}

func (c *Catalog) handleItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/games/")

	if id, ok := strings.CutSuffix(rest, "/screenshots"); ok {
		c.handleScreenshots(w, id)
		return
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid id")
		return
	}
	item, ok := c.Item(id)
	if !ok {
		writeStatus(w, http.StatusNotFound, "Not found.")
		return
	}
	writeBody(w, item)
}

func (c *Catalog) handleScreenshots(w http.ResponseWriter, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid id")
		return
	}

	shots := c.Screenshots(id)
	if shots == nil {
		writeStatus(w, http.StatusNotFound, "Not found.")
		return
	}
	resp := screenshotsResponse{Results: make([]screenshot, 0, len(shots))}
	for _, s := range shots {
		resp.Results = append(resp.Results, screenshot{Image: s})
	}
	writeBody(w, resp)
}

func (c *Catalog) handleGenres(w http.ResponseWriter, r *http.Request) {
	writeBody(w, genresResponse{Results: c.Genres()})
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

func writeBody(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
