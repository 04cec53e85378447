package live

import (
	"encoding/json"
	"time"

	"github.com/liftingsocial/wlbridge/go/internal/models"
)

// LiveEvent is the envelope for all `live-update` frames from WL-System.
type LiveEvent struct {
	CompetitionID string          `json:"competition_id"`
	Type          EventType       `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// EventType represents the type of live update event.
type EventType string

const (
	EventTypeStateUpdate      EventType = "state_update"
	EventTypeResultUpdate     EventType = "result_update"
	EventTypeTimerUpdate      EventType = "timer_update"
	EventTypeCompetitionStart EventType = "competition_start"
	EventTypeSessionComplete  EventType = "session_complete"
)

// TimerUpdatePayload carries an attempt-clock delta. It merges into the
// live state's timer only; all other fields stay untouched.
type TimerUpdatePayload struct {
	Running   bool `json:"running"`
	Remaining int  `json:"remaining"`
}

// ResultUpdatePayload is a partial scoreboard row update. Nil fields were
// absent from the frame and leave the stored row's value unchanged. Derived
// fields arrive precomputed from the server and are stored verbatim.
type ResultUpdatePayload struct {
	RegistrationID string `json:"registration_id"`

	AthleteName    *string `json:"athlete_name,omitempty"`
	WeightCategory *string `json:"weight_category,omitempty"`
	LotNumber      *int    `json:"lot_number,omitempty"`
	SessionNumber  *int    `json:"session_number,omitempty"`
	GroupNumber    *int    `json:"group_number,omitempty"`
	ClubName       *string `json:"club_name,omitempty"`

	SnatchAttempts    *[3]models.Attempt `json:"snatch_attempts,omitempty"`
	CleanJerkAttempts *[3]models.Attempt `json:"clean_jerk_attempts,omitempty"`

	BestSnatch    *float64       `json:"best_snatch,omitempty"`
	BestCleanJerk *float64       `json:"best_clean_jerk,omitempty"`
	Total         *float64       `json:"total,omitempty"`
	SinclairScore *float64       `json:"sinclair_score,omitempty"`
	CategoryRank  *int           `json:"category_rank,omitempty"`
	Medals        *models.Medals `json:"medals,omitempty"`
}

// ParseEventPayload parses event data into the appropriate payload struct.
// Signal events carry no payload and return nil.
func ParseEventPayload(event *LiveEvent) (interface{}, error) {
	switch event.Type {
	case EventTypeStateUpdate:
		var payload models.CompetitionLiveState
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeResultUpdate:
		var payload ResultUpdatePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeTimerUpdate:
		var payload TimerUpdatePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeCompetitionStart, EventTypeSessionComplete:
		return nil, nil

	default:
		return nil, ErrUnknownEventType
	}
}
