package wlsystem

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/liftingsocial/wlbridge/go/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestGetScoreboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, fmt.Sprintf(ScoreboardEndpoint, "e1"), r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"scoreboard": [
				{
					"registration_id": "r1",
					"athlete_name": "Chamari Perera",
					"weight_category": "W59",
					"lot_number": 4,
					"best_snatch": 140,
					"snatch_attempts": [
						{"weight_kg": 136, "result": "good_lift"},
						{"weight_kg": 140, "result": "good_lift"},
						{"weight_kg": 143, "result": "no_lift"}
					]
				}
			],
			"live_state": {
				"session": 1,
				"group": "A",
				"lift_type": "snatch",
				"timer": {"running": true, "remaining_seconds": 45}
			}
		}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	resp, err := client.GetScoreboard(context.Background(), "e1")
	require.NoError(t, err)

	require.Len(t, resp.Scoreboard, 1)
	row := resp.Scoreboard[0]
	require.Equal(t, "r1", row.RegistrationID)
	require.Equal(t, floatPtr(140.0), row.BestSnatch)
	require.Equal(t, models.AttemptNoLift, row.SnatchAttempts[2].Result)

	require.Equal(t, models.LiftTypeSnatch, resp.LiveState.LiftType)
	require.True(t, resp.LiveState.Timer.Running)
	require.Equal(t, 45, resp.LiveState.Timer.RemainingSeconds)
}

func TestGetScoreboardUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server blew up", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "")
	_, err := client.GetScoreboard(context.Background(), "e1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestSyncRegistrationsSendsBearerAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, SyncRegistrationsEndpoint, r.URL.Path)
		require.Equal(t, "Bearer sekrit", r.Header.Get(AuthorizationHeader))

		var req SyncRegistrationsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "e1", req.EventID)
		require.Equal(t, []string{"r1", "r2"}, req.RegistrationIDs)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SyncRegistrationsResponse{
			Success:     true,
			SyncedIDs:   []string{"r1"},
			RejectedIDs: []string{"r2"},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sekrit")
	resp, err := client.SyncRegistrations(context.Background(), SyncRegistrationsRequest{
		EventID:         "e1",
		RegistrationIDs: []string{"r1", "r2"},
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, []string{"r1"}, resp.SyncedIDs)
	require.Equal(t, []string{"r2"}, resp.RejectedIDs)
}

func TestGetSyncStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, fmt.Sprintf(SyncStatusEndpoint, "e1"), r.URL.Path)
		fmt.Fprint(w, `{
			"is_linked": true,
			"sync_status": "partial_sync",
			"synced_registration_count": 7
		}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sekrit")
	status, err := client.GetSyncStatus(context.Background(), "e1")
	require.NoError(t, err)
	require.True(t, status.IsLinked)
	require.Equal(t, models.SyncStatePartialSync, status.SyncStatus)
	require.Equal(t, 7, status.SyncedRegistrationCount)
}

func TestGetRegistrations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, fmt.Sprintf(RegistrationsEndpoint, "e1"), r.URL.Path)
		fmt.Fprint(w, `[
			{"id": "r1", "status": "confirmed"},
			{"id": "r2", "status": "pending"},
			{"id": "r3", "status": "final_approved"}
		]`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sekrit")
	registrations, err := client.GetRegistrations(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, registrations, 3)

	// Only confirmed and final_approved registrations are sync candidates.
	require.Equal(t, []string{"r1", "r3"}, models.FilterSyncable(registrations))
}
