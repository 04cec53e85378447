package wlsystem

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/liftingsocial/wlbridge/go/internal/models"
)

// ScoreboardResponse is the full competition snapshot used for reconciliation.
type ScoreboardResponse struct {
	Scoreboard []models.AthleteResult      `json:"scoreboard"`
	LiveState  models.CompetitionLiveState `json:"live_state"`
}

// GetScoreboard fetches the full scoreboard and live state for a competition.
// This endpoint is public read-only; no bearer token is required.
func (c *Client) GetScoreboard(ctx context.Context, eventID string) (*ScoreboardResponse, error) {
	body, err := c.Get(ctx, fmt.Sprintf(ScoreboardEndpoint, eventID))
	if err != nil {
		return nil, fmt.Errorf("failed to get scoreboard: %w", err)
	}

	var response ScoreboardResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scoreboard response: %w", err)
	}

	return &response, nil
}

// GetEvents lists competitions known to WL-System.
func (c *Client) GetEvents(ctx context.Context) ([]models.Event, error) {
	body, err := c.Get(ctx, EventsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}

	var events []models.Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to unmarshal events response: %w", err)
	}

	return events, nil
}
