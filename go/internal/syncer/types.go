package syncer

import (
	"errors"

	"github.com/google/uuid"
	"github.com/liftingsocial/wlbridge/go/internal/models"
)

// ErrSyncInProgress is returned when a sync is requested for a competition
// that already has one in flight. The caller must not queue or retry; a
// second concurrent batch would race the external system.
var ErrSyncInProgress = errors.New("sync already in progress for this competition")

// ErrNoRegistrations is returned when a sync is requested with an empty
// batch after filtering.
var ErrNoRegistrations = errors.New("no syncable registrations to submit")

// Outcome summarizes one completed sync batch.
type Outcome struct {
	Success       bool                  `json:"success"`
	SyncedCount   int                   `json:"synced_count"`
	RejectedCount int                   `json:"rejected_count"`
	Status        models.EventSyncState `json:"status"`
	Error         string                `json:"error,omitempty"`
	LogID         uuid.UUID             `json:"log_id"`
}
