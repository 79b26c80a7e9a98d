// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"

	app "github.com/okian/gamefeed/internal/app"
	"github.com/okian/gamefeed/internal/assembler"
)

// FeedHandler serves the seeded feed and the personalized smart feed.
type FeedHandler struct {
	svc Service
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(svc Service) *FeedHandler {
	return &FeedHandler{svc: svc}
}

// HandleFeed handles GET /feed?page=N&genres=...&search=... requests.
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_feed"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	page, err := pageParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	feed, err := h.svc.NextPage(r.Context(), page,
		r.URL.Query().Get("genres"), r.URL.Query().Get("search"))
	if err != nil {
		writeFeedError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// HandleSmartFeed handles GET /feed/smart requests.
func (h *FeedHandler) HandleSmartFeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_smart_feed"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	page, err := pageParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	feed, err := h.svc.SmartFeed(r.Context(), page,
		r.URL.Query().Get("genres"), r.URL.Query().Get("search"))
	if err != nil {
		writeFeedError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// pageParam reads the page query parameter, defaulting to 1.
func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, errors.New("page must be a positive integer")
	}
	return page, nil
}

// writeFeedError maps pipeline errors onto HTTP statuses. An in-flight
// collision is the client's cue to retry after the outstanding fetch,
// not a server fault.
func writeFeedError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, app.ErrFetchInFlight):
		writeError(w, http.StatusTooManyRequests, "fetch_in_flight", NewKind(op, ErrBusy))
	case errors.Is(err, app.ErrStaleResult):
		writeError(w, http.StatusConflict, "session_reset", Wrap(op, err))
	case errors.Is(err, assembler.ErrInvalidPage), errors.Is(err, assembler.ErrInvalidPageSize):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
