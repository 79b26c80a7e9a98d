// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/okian/gamefeed/internal/adapters/catalog"
	app "github.com/okian/gamefeed/internal/app"
	"github.com/okian/gamefeed/internal/domain/model"
	"github.com/okian/gamefeed/internal/domain/types"
)

// Service is the feed engine surface the handlers need. Using an
// interface bundle keeps the handler layer loosely coupled to the
// implementation in internal/app.
type Service interface {
	NextPage(ctx context.Context, page int, genres, search string) (types.FeedPage, error)
	SmartFeed(ctx context.Context, page int, genres, search string) (types.FeedPage, error)

	MarkDisplayed(ctx context.Context, ids []int64) bool
	RecordView(ctx context.Context, item model.CatalogItem, dwellSeconds float64) bool
	RecordSkip(ctx context.Context, item model.CatalogItem) bool
	RecordGenreInterest(ctx context.Context, genreSlug string) bool

	StoreLinks(ctx context.Context, name string) []model.StoreLink
	Genres(ctx context.Context) ([]model.Genre, error)
	Detail(ctx context.Context, id int64, withScreenshots bool) (app.ItemDetail, error)

	Reset(ctx context.Context)
	Stats(ctx context.Context) map[string]interface{}
}

// Server wires HTTP routes for the feed API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	feedHandler         *FeedHandler
	interactionsHandler *InteractionsHandler
	catalogHandler      *CatalogHandler
	sessionHandler      *SessionHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(svc Service) *Server {
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(svc),
		feedHandler:         NewFeedHandler(svc),
		interactionsHandler: NewInteractionsHandler(svc),
		catalogHandler:      NewCatalogHandler(svc),
		sessionHandler:      NewSessionHandler(svc),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/feed/smart", MetricsMiddleware(s.feedHandler.HandleSmartFeed, "feed_smart"))
	mux.HandleFunc("/feed", MetricsMiddleware(s.feedHandler.HandleFeed, "feed"))
	mux.HandleFunc("/interactions", MetricsMiddleware(s.interactionsHandler.HandlePostInteraction, "interactions"))
	mux.HandleFunc("/genres", MetricsMiddleware(s.catalogHandler.HandleGetGenres, "genres"))
	mux.HandleFunc("/stores", MetricsMiddleware(s.catalogHandler.HandleGetStores, "stores"))
	mux.HandleFunc("/games/", MetricsMiddleware(s.catalogHandler.HandleGetDetail, "games"))
	mux.HandleFunc("/reset", MetricsMiddleware(s.sessionHandler.HandleReset, "reset"))
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found conditions to 404.
func isNotFound(err error) bool {
	var statusErr *catalog.StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}
