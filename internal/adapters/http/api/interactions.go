// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/okian/gamefeed/internal/domain/model"
)

// interactionRequest mirrors the OpenAPI schema for POST /interactions.
type interactionRequest struct {
	Type         string         `json:"type"`
	Item         *model.RawItem `json:"item,omitempty"`
	ItemIDs      []int64        `json:"item_ids,omitempty"`
	Genre        string         `json:"genre,omitempty"`
	DwellSeconds float64        `json:"dwell_seconds,omitempty"`
}

func (r interactionRequest) validate() error {
	switch r.Type {
	case string(model.InteractionDisplayed):
		if len(r.ItemIDs) == 0 {
			return errors.New("missing item_ids")
		}
	case string(model.InteractionView), string(model.InteractionSkip):
		if r.Item == nil || r.Item.ID == 0 {
			return errors.New("missing item")
		}
	case string(model.InteractionGenreInterest):
		if r.Genre == "" {
			return errors.New("missing genre")
		}
	case "":
		return errors.New("missing type")
	default:
		return errors.New("unknown type")
	}
	return nil
}

// InteractionsHandler accepts viewer interaction reports.
type InteractionsHandler struct {
	svc Service
}

// NewInteractionsHandler creates a new interactions handler.
func NewInteractionsHandler(svc Service) *InteractionsHandler {
	return &InteractionsHandler{svc: svc}
}

// HandlePostInteraction handles POST /interactions requests. Accepted
// interactions are applied asynchronously; a 202 means queued, not
// learned.
func (h *InteractionsHandler) HandlePostInteraction(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_interaction"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var ok bool
	switch model.InteractionKind(req.Type) {
	case model.InteractionDisplayed:
		ok = h.svc.MarkDisplayed(r.Context(), req.ItemIDs)
	case model.InteractionView:
		ok = h.svc.RecordView(r.Context(), req.Item.Normalize(), req.DwellSeconds)
	case model.InteractionSkip:
		ok = h.svc.RecordSkip(r.Context(), req.Item.Normalize())
	case model.InteractionGenreInterest:
		ok = h.svc.RecordGenreInterest(r.Context(), req.Genre)
	}

	if !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
