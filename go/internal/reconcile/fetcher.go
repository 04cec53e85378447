package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/liftingsocial/wlbridge/go/clients/wlsystem"
	"github.com/liftingsocial/wlbridge/go/internal/live"
)

// ScoreboardSource is the slice of the WL-System client the fetcher needs.
type ScoreboardSource interface {
	GetScoreboard(ctx context.Context, eventID string) (*wlsystem.ScoreboardResponse, error)
}

// Fetcher performs full-state reconciliation fetches. A full fetch replaces
// local state outright, which restores consistency after lost deltas. At
// most one fetch per competition is in flight; a newer request cancels the
// older one, and a fetch cancelled by Cancel never writes its response.
type Fetcher struct {
	source  ScoreboardSource
	states  *live.StateManager
	timeout time.Duration

	mu       sync.Mutex
	inFlight map[string]*inFlightFetch
}

type inFlightFetch struct {
	cancel context.CancelFunc
}

// NewFetcher creates a reconciliation fetcher with a bounded per-fetch
// timeout.
func NewFetcher(source ScoreboardSource, states *live.StateManager, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		source:   source,
		states:   states,
		timeout:  timeout,
		inFlight: make(map[string]*inFlightFetch),
	}
}

// Reconcile fetches the full scoreboard for a competition and replaces
// local state with it. On error the last-known state is retained and the
// error returned; retry is the caller's call, never automatic.
func (f *Fetcher) Reconcile(ctx context.Context, competitionID string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)

	tag := &inFlightFetch{cancel: cancel}

	f.mu.Lock()
	if prev, ok := f.inFlight[competitionID]; ok {
		// A newer reconcile supersedes the one in flight.
		prev.cancel()
	}
	f.inFlight[competitionID] = tag
	f.mu.Unlock()

	defer func() {
		cancel()
		f.mu.Lock()
		if f.inFlight[competitionID] == tag {
			delete(f.inFlight, competitionID)
		}
		f.mu.Unlock()
	}()

	resp, err := f.source.GetScoreboard(fetchCtx, competitionID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("competition_id", competitionID).
			Msg("reconciliation fetch failed, retaining last-known state")
		return fmt.Errorf("reconcile %s: %w", competitionID, err)
	}

	// Drop the response if this fetch was superseded or cancelled while
	// in flight, so a late reply cannot clobber newer state.
	f.mu.Lock()
	current := f.inFlight[competitionID] == tag
	f.mu.Unlock()
	if !current {
		log.Debug().
			Str("competition_id", competitionID).
			Msg("discarding superseded reconciliation response")
		return nil
	}

	f.states.Replace(competitionID, live.CompetitionState{
		Live:    resp.LiveState,
		Results: resp.Scoreboard,
	})

	log.Info().
		Str("competition_id", competitionID).
		Int("results", len(resp.Scoreboard)).
		Msg("reconciled competition state")
	return nil
}

// Cancel aborts any in-flight fetch for a competition. Called when the
// competition is unsubscribed so a late response cannot write state for a
// view nobody is watching.
func (f *Fetcher) Cancel(competitionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if tag, ok := f.inFlight[competitionID]; ok {
		tag.cancel()
		delete(f.inFlight, competitionID)
	}
}

// InFlight reports whether a fetch for a competition is running.
func (f *Fetcher) InFlight(competitionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.inFlight[competitionID]
	return ok
}
