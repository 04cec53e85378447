package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/liftingsocial/wlbridge/go/clients/wlsystem"
	"github.com/liftingsocial/wlbridge/go/internal/feed"
	"github.com/liftingsocial/wlbridge/go/internal/gateway"
	"github.com/liftingsocial/wlbridge/go/internal/live"
	"github.com/liftingsocial/wlbridge/go/internal/models"
	"github.com/liftingsocial/wlbridge/go/internal/projection"
	"github.com/liftingsocial/wlbridge/go/internal/reconcile"
	"github.com/liftingsocial/wlbridge/go/internal/syncer"
)

// Handler exposes the bridge's HTTP surface: projected scoreboards, sync
// control, and the downstream WebSocket upgrade.
type Handler struct {
	states       *live.StateManager
	fetcher      *reconcile.Fetcher
	orchestrator *syncer.Orchestrator
	client       *wlsystem.Client
	feedClient   *feed.Client
	wsHandler    *gateway.WebSocketHandler
	connections  *gateway.ConnectionManager
}

func NewHandler(
	states *live.StateManager,
	fetcher *reconcile.Fetcher,
	orchestrator *syncer.Orchestrator,
	client *wlsystem.Client,
	feedClient *feed.Client,
	wsHandler *gateway.WebSocketHandler,
	connections *gateway.ConnectionManager,
) *Handler {
	return &Handler{
		states:       states,
		fetcher:      fetcher,
		orchestrator: orchestrator,
		client:       client,
		feedClient:   feedClient,
		wsHandler:    wsHandler,
		connections:  connections,
	}
}

// Subscribe attaches the bridge to a competition: joins the live feed room
// and kicks off the baseline reconciliation fetch.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if err := h.feedClient.Subscribe(eventID); err != nil {
		log.Warn().Err(err).Str("event_id", eventID).Msg("room join failed, will retry on reconnect")
	}

	// The request context dies when this handler returns; the baseline
	// fetch must outlive it.
	go func() {
		if err := h.fetcher.Reconcile(context.Background(), eventID); err != nil {
			log.Warn().Err(err).Str("event_id", eventID).Msg("baseline reconciliation failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"event_id": eventID, "status": "subscribed"})
}

// Unsubscribe releases one reference on the competition. Only when the last
// reference goes does it cancel any in-flight fetch and discard local state;
// until then other subscribers keep the materialized view alive.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if last := h.feedClient.Unsubscribe(eventID); last {
		h.fetcher.Cancel(eventID)
		h.states.Remove(eventID)
	}

	writeJSON(w, http.StatusOK, map[string]string{"event_id": eventID, "status": "unsubscribed"})
}

// Events proxies the WL-System competition list for selector population.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.client.GetEvents(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// Scoreboard returns projected, render-ready rows for a competition.
func (h *Handler) Scoreboard(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	state, ok := h.states.GetState(eventID)
	if !ok {
		http.Error(w, "competition not subscribed", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"event_id": eventID,
		"rows":     projection.Project(state.Results),
	})
}

// LiveState returns the raw platform state for a competition.
func (h *Handler) LiveState(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	state, ok := h.states.GetState(eventID)
	if !ok {
		http.Error(w, "competition not subscribed", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, state.Live)
}

// SyncStatus returns the per-competition sync summary.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	status, err := h.orchestrator.SyncStatus(r.Context(), eventID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type syncRequest struct {
	EventID         string   `json:"event_id"`
	RegistrationIDs []string `json:"registration_ids,omitempty"`
}

// TriggerSync posts a registration sync batch. When no ids are supplied,
// the event's registrations are fetched and filtered to
// confirmed/final_approved.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.EventID == "" {
		http.Error(w, "event_id is required", http.StatusBadRequest)
		return
	}

	ids := req.RegistrationIDs
	if len(ids) == 0 {
		regs, err := h.client.GetRegistrations(r.Context(), req.EventID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		ids = models.FilterSyncable(regs)
	}

	outcome, err := h.orchestrator.SyncRegistrations(r.Context(), req.EventID, ids)
	if err != nil {
		switch {
		case errors.Is(err, syncer.ErrSyncInProgress):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, syncer.ErrNoRegistrations):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// SyncLogs lists recent sync audit entries for a competition.
func (h *Handler) SyncLogs(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	logs, err := h.orchestrator.Logs(r.Context(), eventID, 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// Stats reports feed status and downstream connection counts.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.connections.Stats()
	stats["feed_status"] = h.feedClient.Status()
	stats["subscribed_rooms"] = h.feedClient.Rooms()
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
