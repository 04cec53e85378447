package models

import (
	"time"
)

// LiftType defines which lift a session is currently running.
type LiftType string

const (
	LiftTypeSnatch    LiftType = "snatch"
	LiftTypeCleanJerk LiftType = "clean_jerk"
	LiftTypeBreak     LiftType = "break"
)

// RefereeDecision is a single referee's light for the current attempt.
type RefereeDecision string

const (
	DecisionWhite RefereeDecision = "white"
	DecisionRed   RefereeDecision = "red"
	DecisionNone  RefereeDecision = "none"
)

// CurrentAthlete identifies the lifter on the platform.
type CurrentAthlete struct {
	Name          string  `json:"name"`
	AttemptNumber int     `json:"attempt_number"` // 1..3 within the current lift type
	WeightKg      float64 `json:"weight_kg"`
}

// NextAthlete is the on-deck lifter, if the server has announced one.
type NextAthlete struct {
	Name     string  `json:"name"`
	WeightKg float64 `json:"weight_kg"`
}

// LiftTimer is the attempt clock as last reported by the server.
type LiftTimer struct {
	Running          bool `json:"running"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

// CompetitionLiveState is the singleton platform state for one competition.
// All fields are server-authoritative; the bridge mirrors them verbatim.
type CompetitionLiveState struct {
	Session          int                        `json:"session"`
	Group            string                     `json:"group"`
	LiftType         LiftType                   `json:"lift_type"`
	CurrentAthlete   CurrentAthlete             `json:"current_athlete"`
	Timer            LiftTimer                  `json:"timer"`
	RefereeDecisions map[string]RefereeDecision `json:"referee_decisions,omitempty"`
	NextAthlete      *NextAthlete               `json:"next_athlete,omitempty"`
	LastUpdate       time.Time                  `json:"last_update"`
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s CompetitionLiveState) Clone() CompetitionLiveState {
	out := s
	if s.RefereeDecisions != nil {
		out.RefereeDecisions = make(map[string]RefereeDecision, len(s.RefereeDecisions))
		for id, d := range s.RefereeDecisions {
			out.RefereeDecisions[id] = d
		}
	}
	if s.NextAthlete != nil {
		next := *s.NextAthlete
		out.NextAthlete = &next
	}
	return out
}

// CompetitionStatus defines the lifecycle stage of a competition.
type CompetitionStatus string

const (
	CompetitionScheduled        CompetitionStatus = "scheduled"
	CompetitionRegistrationOpen CompetitionStatus = "registration_open"
	CompetitionEntriesClosed    CompetitionStatus = "entries_closed"
	CompetitionInProgress       CompetitionStatus = "in_progress"
	CompetitionCompleted        CompetitionStatus = "completed"
	CompetitionCancelled        CompetitionStatus = "cancelled"
)

// Event is a competition as listed by the WL-System events endpoint.
type Event struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Location  string            `json:"location,omitempty"`
	StartDate *time.Time        `json:"start_date,omitempty"`
	Status    CompetitionStatus `json:"status"`
}
