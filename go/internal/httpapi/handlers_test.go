package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/liftingsocial/wlbridge/go/clients/wlsystem"
	"github.com/liftingsocial/wlbridge/go/internal/feed"
	"github.com/liftingsocial/wlbridge/go/internal/gateway"
	"github.com/liftingsocial/wlbridge/go/internal/live"
	"github.com/liftingsocial/wlbridge/go/internal/models"
	"github.com/liftingsocial/wlbridge/go/internal/reconcile"
	"github.com/liftingsocial/wlbridge/go/internal/syncer"
)

const testAdminToken = "admin-sekrit"

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

type memoryRepo struct {
	mu   sync.Mutex
	logs []models.SyncLog
}

func (r *memoryRepo) InsertPending(ctx context.Context, entry *models.SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *memoryRepo) MarkCompleted(ctx context.Context, id uuid.UUID, status models.SyncLogStatus, durationMs int64, errorMessage *string, syncedCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.logs {
		if r.logs[i].ID == id {
			r.logs[i].Status = status
			r.logs[i].DurationMs = &durationMs
			r.logs[i].ErrorMessage = errorMessage
			r.logs[i].SyncedCount = syncedCount
			return nil
		}
	}
	return fmt.Errorf("log entry %s not found", id)
}

func (r *memoryRepo) ListByEvent(ctx context.Context, eventID string, limit int) ([]models.SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SyncLog
	for _, entry := range r.logs {
		if entry.EventID == eventID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// upstream is a scripted WL-System stand-in.
type upstream struct {
	mu            sync.Mutex
	registrations map[string][]models.Registration
	scoreboards   map[string]wlsystem.ScoreboardResponse
	scoreboardLag time.Duration
	lastSyncReq   *wlsystem.SyncRegistrationsRequest
	syncResp      wlsystem.SyncRegistrationsResponse
}

func (u *upstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/events/", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		// Path shape: /api/admin/events/{id}/registrations
		eventID := strings.TrimPrefix(r.URL.Path, "/api/admin/events/")
		eventID = strings.TrimSuffix(eventID, "/registrations")
		json.NewEncoder(w).Encode(u.registrations[eventID])
	})
	mux.HandleFunc("/api/wl-system/scoreboard/", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		lag := u.scoreboardLag
		eventID := strings.TrimPrefix(r.URL.Path, "/api/wl-system/scoreboard/")
		resp, ok := u.scoreboards[eventID]
		u.mu.Unlock()

		if lag > 0 {
			time.Sleep(lag)
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/wl-system/sync/registrations", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		var req wlsystem.SyncRegistrationsRequest
		json.NewDecoder(r.Body).Decode(&req)
		u.lastSyncReq = &req
		json.NewEncoder(w).Encode(u.syncResp)
	})
	return mux
}

func (u *upstream) lastRequest() *wlsystem.SyncRegistrationsRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastSyncReq
}

type testEnv struct {
	states   *live.StateManager
	upstream *upstream
	server   *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	up := &upstream{
		registrations: make(map[string][]models.Registration),
		scoreboards:   make(map[string]wlsystem.ScoreboardResponse),
		syncResp:      wlsystem.SyncRegistrationsResponse{Success: true},
	}
	upstreamSrv := httptest.NewServer(up.handler())
	t.Cleanup(upstreamSrv.Close)

	client := wlsystem.NewClient(upstreamSrv.URL, "tok")
	states := live.NewStateManager()
	fetcher := reconcile.NewFetcher(client, states, time.Second)
	orchestrator := syncer.NewOrchestrator(client, &memoryRepo{}, nil)

	feedClient := feed.NewClient(feed.DefaultConfig("ws://feed.invalid/ws"), feed.Callbacks{}, nil)
	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
	wsHandler := gateway.NewWebSocketHandler(connections)

	handler := NewHandler(states, fetcher, orchestrator, client, feedClient, wsHandler, connections)
	srv := httptest.NewServer(SetupRoutes(handler, testAdminToken))
	t.Cleanup(srv.Close)

	return &testEnv{states: states, upstream: up, server: srv}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, admin bool) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if admin {
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestScoreboardEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.states.Replace("e1", live.CompetitionState{
		Results: []models.AthleteResult{
			{RegistrationID: "r2", WeightCategory: "W59", LotNumber: 9, Total: floatPtr(211), CategoryRank: intPtr(1)},
			{RegistrationID: "r1", WeightCategory: "W59", LotNumber: 4},
		},
	})

	resp := env.request(t, http.MethodGet, "/api/scoreboard/e1", nil, false)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		EventID string `json:"event_id"`
		Rows    []struct {
			RegistrationID string `json:"registration_id"`
			Ranked         bool   `json:"ranked"`
		} `json:"rows"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "e1", body.EventID)
	require.Len(t, body.Rows, 2)
	require.Equal(t, "r2", body.Rows[0].RegistrationID, "ranked rows sort first")
	require.True(t, body.Rows[0].Ranked)
}

func TestScoreboardNotSubscribed(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/scoreboard/nope", nil, false)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLiveStateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.states.Replace("e1", live.CompetitionState{
		Live: models.CompetitionLiveState{LiftType: models.LiftTypeCleanJerk, Session: 2},
	})

	resp := env.request(t, http.MethodGet, "/api/live/e1", nil, false)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state models.CompetitionLiveState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	require.Equal(t, models.LiftTypeCleanJerk, state.LiftType)
	require.Equal(t, 2, state.Session)
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/sync/registrations", syncRequest{EventID: "e1"}, false)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTriggerSyncFiltersUnsuppliedBatch(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.mu.Lock()
	env.upstream.registrations["e1"] = []models.Registration{
		{ID: "r1", Status: models.RegistrationConfirmed},
		{ID: "r2", Status: models.RegistrationPending},
		{ID: "r3", Status: models.RegistrationFinalApproved},
	}
	env.upstream.syncResp = wlsystem.SyncRegistrationsResponse{
		Success:   true,
		SyncedIDs: []string{"r1", "r3"},
	}
	env.upstream.mu.Unlock()

	resp := env.request(t, http.MethodPost, "/api/sync/registrations", syncRequest{EventID: "e1"}, true)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var outcome syncer.Outcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&outcome))
	require.True(t, outcome.Success)
	require.Equal(t, 2, outcome.SyncedCount)
	require.Equal(t, models.SyncStateSynced, outcome.Status)

	sent := env.upstream.lastRequest()
	require.NotNil(t, sent)
	require.Equal(t, []string{"r1", "r3"}, sent.RegistrationIDs, "pending registrations filtered out")
}

func TestTriggerSyncNoSyncableRegistrations(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.mu.Lock()
	env.upstream.registrations["e1"] = []models.Registration{
		{ID: "r1", Status: models.RegistrationPending},
	}
	env.upstream.mu.Unlock()

	resp := env.request(t, http.MethodPost, "/api/sync/registrations", syncRequest{EventID: "e1"}, true)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestTriggerSyncMissingEventID(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/api/sync/registrations", syncRequest{}, true)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubscribeRunsBaselineReconciliation(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.mu.Lock()
	env.upstream.scoreboardLag = 150 * time.Millisecond
	env.upstream.scoreboards["e1"] = wlsystem.ScoreboardResponse{
		LiveState: models.CompetitionLiveState{Session: 1, LiftType: models.LiftTypeSnatch},
		Scoreboard: []models.AthleteResult{
			{RegistrationID: "r1", AthleteName: "Chamari Perera", WeightCategory: "W59"},
		},
	}
	env.upstream.mu.Unlock()

	resp := env.request(t, http.MethodPost, "/api/competitions/e1/subscribe", nil, true)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// The baseline fetch finishes after the handler has returned; it must
	// survive the request and populate the view despite upstream latency.
	require.Eventually(t, func() bool {
		state, ok := env.states.GetState("e1")
		return ok && len(state.Results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	state, _ := env.states.GetState("e1")
	require.Equal(t, "r1", state.Results[0].RegistrationID)
	require.Equal(t, models.LiftTypeSnatch, state.Live.LiftType)
}

func TestUnsubscribeReleasesOnLastReference(t *testing.T) {
	env := newTestEnv(t)

	// Two independent subscribers for the same competition.
	for i := 0; i < 2; i++ {
		resp := env.request(t, http.MethodPost, "/api/competitions/e1/subscribe", nil, true)
		resp.Body.Close()
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}
	env.states.Replace("e1", live.CompetitionState{
		Results: []models.AthleteResult{{RegistrationID: "r1"}},
	})

	// Dropping one subscriber must not discard the view the other is using.
	resp := env.request(t, http.MethodDelete, "/api/competitions/e1/subscribe", nil, true)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, ok := env.states.GetState("e1")
	require.True(t, ok, "state must survive while a subscriber remains")

	// The last release discards state.
	resp = env.request(t, http.MethodDelete, "/api/competitions/e1/subscribe", nil, true)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, ok = env.states.GetState("e1")
	require.False(t, ok)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/stats", nil, false)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	require.Equal(t, "disconnected", stats["feed_status"])
	require.EqualValues(t, 0, stats["total_connections"])
}
