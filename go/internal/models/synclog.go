package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncDirection defines which way a sync operation moved data.
type SyncDirection string

const (
	SyncToExternal   SyncDirection = "to_external"
	SyncFromExternal SyncDirection = "from_external"
)

// SyncLogStatus defines the status of a single sync operation.
// Entries only ever transition pending -> success or pending -> failed.
type SyncLogStatus string

const (
	SyncLogPending SyncLogStatus = "pending"
	SyncLogSuccess SyncLogStatus = "success"
	SyncLogFailed  SyncLogStatus = "failed"
)

// SyncLog is one append-only audit record of a sync operation.
type SyncLog struct {
	ID           uuid.UUID     `json:"id"`
	EventID      string        `json:"event_id"`
	SyncType     string        `json:"sync_type"`
	Direction    SyncDirection `json:"direction"`
	Status       SyncLogStatus `json:"status"`
	SyncedCount  int           `json:"synced_count"`
	DurationMs   *int64        `json:"duration_ms,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// EventSyncState summarizes how well a competition is synced with WL-System.
type EventSyncState string

const (
	SyncStateSynced      EventSyncState = "synced"
	SyncStatePending     EventSyncState = "pending"
	SyncStateFailed      EventSyncState = "sync_failed"
	SyncStatePartialSync EventSyncState = "partial_sync"
	SyncStateManual      EventSyncState = "manual"
)

// EventSyncStatus is the per-competition sync summary.
type EventSyncStatus struct {
	ExternalCompetitionID   *string           `json:"external_competition_id,omitempty"`
	SyncStatus              EventSyncState    `json:"sync_status"`
	LastSyncAt              *time.Time        `json:"last_sync_at,omitempty"`
	CompetitionStatus       CompetitionStatus `json:"competition_status"`
	SyncedRegistrationCount int               `json:"synced_registration_count"`
	IsLinked                bool              `json:"is_linked"`
}
