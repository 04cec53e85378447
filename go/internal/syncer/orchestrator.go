package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/liftingsocial/wlbridge/go/clients/wlsystem"
	"github.com/liftingsocial/wlbridge/go/internal/models"
)

const syncTypeRegistrations = "registrations"

// SyncTarget is the slice of the WL-System client the orchestrator needs.
type SyncTarget interface {
	SyncRegistrations(ctx context.Context, req wlsystem.SyncRegistrationsRequest) (*wlsystem.SyncRegistrationsResponse, error)
	GetSyncStatus(ctx context.Context, eventID string) (*models.EventSyncStatus, error)
}

// Orchestrator triggers outbound registration sync batches and keeps the
// per-competition sync summary. At most one batch per competition may be in
// flight; this is UI-level debouncing against double submission, the real
// mutual exclusion lives on the external side.
type Orchestrator struct {
	target SyncTarget
	repo   SyncLogRepository
	clock  clockwork.Clock

	mu       sync.Mutex
	inFlight map[string]bool
	statuses map[string]*models.EventSyncStatus
}

// NewOrchestrator creates a sync orchestrator.
func NewOrchestrator(target SyncTarget, repo SyncLogRepository, clock clockwork.Clock) *Orchestrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Orchestrator{
		target:   target,
		repo:     repo,
		clock:    clock,
		inFlight: make(map[string]bool),
		statuses: make(map[string]*models.EventSyncStatus),
	}
}

// SyncRegistrations posts one batch of registration ids to WL-System and
// appends an audit log entry with timing and error detail. The caller is
// responsible for supplying only confirmed/final_approved registrations.
// Returns ErrSyncInProgress without any network call if a batch for the
// same competition is already in flight. Failed batches are not retried;
// the sync is an idempotent upsert on the external side, so a manual
// re-trigger is always safe.
func (o *Orchestrator) SyncRegistrations(ctx context.Context, eventID string, registrationIDs []string) (*Outcome, error) {
	if len(registrationIDs) == 0 {
		return nil, ErrNoRegistrations
	}

	o.mu.Lock()
	if o.inFlight[eventID] {
		o.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	o.inFlight[eventID] = true
	o.setStatusLocked(eventID, models.SyncStatePending, 0)
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.inFlight, eventID)
		o.mu.Unlock()
	}()

	entry := &models.SyncLog{
		ID:        uuid.New(),
		EventID:   eventID,
		SyncType:  syncTypeRegistrations,
		Direction: models.SyncToExternal,
		Status:    models.SyncLogPending,
		CreatedAt: o.clock.Now(),
	}
	if err := o.repo.InsertPending(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to open sync log entry: %w", err)
	}

	log.Info().
		Str("event_id", eventID).
		Int("batch_size", len(registrationIDs)).
		Str("log_id", entry.ID.String()).
		Msg("starting registration sync batch")

	start := o.clock.Now()
	resp, err := o.target.SyncRegistrations(ctx, wlsystem.SyncRegistrationsRequest{
		EventID:         eventID,
		RegistrationIDs: registrationIDs,
	})
	durationMs := o.clock.Since(start).Milliseconds()

	if err != nil {
		msg := err.Error()
		o.completeLog(ctx, entry.ID, models.SyncLogFailed, durationMs, &msg, 0)
		o.updateStatus(eventID, models.SyncStateFailed, 0)

		log.Error().
			Err(err).
			Str("event_id", eventID).
			Int64("duration_ms", durationMs).
			Msg("registration sync batch failed")

		return &Outcome{
			Success: false,
			Status:  models.SyncStateFailed,
			Error:   msg,
			LogID:   entry.ID,
		}, nil
	}

	synced := len(resp.SyncedIDs)
	rejected := len(resp.RejectedIDs)

	status := models.SyncStateSynced
	if rejected > 0 {
		status = models.SyncStatePartialSync
	}

	// The batch itself succeeded even when some ids were rejected; per-id
	// rejection is recorded via the synced count and the status summary.
	o.completeLog(ctx, entry.ID, models.SyncLogSuccess, durationMs, nil, synced)
	o.updateStatus(eventID, status, synced)

	log.Info().
		Str("event_id", eventID).
		Str("status", string(status)).
		Int("synced", synced).
		Int("rejected", rejected).
		Int64("duration_ms", durationMs).
		Msg("registration sync batch completed")

	return &Outcome{
		Success:       true,
		SyncedCount:   synced,
		RejectedCount: rejected,
		Status:        status,
		Error:         resp.Error,
		LogID:         entry.ID,
	}, nil
}

// SyncStatus returns the sync summary for a competition, fetching it from
// WL-System on first access and serving the locally maintained copy after.
func (o *Orchestrator) SyncStatus(ctx context.Context, eventID string) (*models.EventSyncStatus, error) {
	o.mu.Lock()
	if status, ok := o.statuses[eventID]; ok {
		copied := *status
		o.mu.Unlock()
		return &copied, nil
	}
	o.mu.Unlock()

	status, err := o.target.GetSyncStatus(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync status: %w", err)
	}

	o.mu.Lock()
	o.statuses[eventID] = status
	copied := *status
	o.mu.Unlock()
	return &copied, nil
}

// Logs lists recent sync log entries for a competition.
func (o *Orchestrator) Logs(ctx context.Context, eventID string, limit int) ([]models.SyncLog, error) {
	return o.repo.ListByEvent(ctx, eventID, limit)
}

// InFlight reports whether a sync batch for a competition is running.
func (o *Orchestrator) InFlight(eventID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight[eventID]
}

func (o *Orchestrator) completeLog(ctx context.Context, id uuid.UUID, status models.SyncLogStatus, durationMs int64, errorMessage *string, syncedCount int) {
	if err := o.repo.MarkCompleted(ctx, id, status, durationMs, errorMessage, syncedCount); err != nil {
		log.Error().
			Err(err).
			Str("log_id", id.String()).
			Msg("failed to close sync log entry")
	}
}

func (o *Orchestrator) updateStatus(eventID string, state models.EventSyncState, syncedDelta int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.setStatusLocked(eventID, state, syncedDelta)
}

func (o *Orchestrator) setStatusLocked(eventID string, state models.EventSyncState, syncedDelta int) {
	status, ok := o.statuses[eventID]
	if !ok {
		status = &models.EventSyncStatus{}
		o.statuses[eventID] = status
	}
	status.SyncStatus = state
	status.SyncedRegistrationCount += syncedDelta
	if state == models.SyncStateSynced || state == models.SyncStatePartialSync {
		now := o.clock.Now()
		status.LastSyncAt = &now
		status.IsLinked = true
	}
}
