package wlsystem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/liftingsocial/wlbridge/go/internal/models"
)

// SyncRegistrationsRequest is the outbound sync batch body.
type SyncRegistrationsRequest struct {
	EventID         string   `json:"event_id"`
	RegistrationIDs []string `json:"registration_ids"`
}

// SyncRegistrationsResponse reports per-id acceptance for a sync batch.
// The external side upserts by registration id, so resubmitting an
// accepted id is harmless.
type SyncRegistrationsResponse struct {
	Success     bool     `json:"success"`
	SyncedIDs   []string `json:"synced_ids"`
	RejectedIDs []string `json:"rejected_ids,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// SyncRegistrations posts a batch of registration ids to WL-System.
func (c *Client) SyncRegistrations(ctx context.Context, req SyncRegistrationsRequest) (*SyncRegistrationsResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sync request: %w", err)
	}

	body, err := c.Post(ctx, SyncRegistrationsEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to post sync batch: %w", err)
	}

	var response SyncRegistrationsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync response: %w", err)
	}

	return &response, nil
}

// GetSyncStatus fetches the per-competition sync summary from WL-System.
func (c *Client) GetSyncStatus(ctx context.Context, eventID string) (*models.EventSyncStatus, error) {
	body, err := c.Get(ctx, fmt.Sprintf(SyncStatusEndpoint, eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	var status models.EventSyncStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync status response: %w", err)
	}

	return &status, nil
}
