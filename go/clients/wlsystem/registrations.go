package wlsystem

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liftingsocial/wlbridge/go/internal/models"
)

// GetRegistrations lists all registrations for an event, regardless of
// status. Callers filter for syncable statuses before submitting a sync.
func (c *Client) GetRegistrations(ctx context.Context, eventID string) ([]models.Registration, error) {
	body, err := c.Get(ctx, fmt.Sprintf(RegistrationsEndpoint, eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}

	var registrations []models.Registration
	if err := json.Unmarshal(body, &registrations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registrations response: %w", err)
	}

	return registrations, nil
}
