package live

import (
	"errors"
	"fmt"

	"github.com/liftingsocial/wlbridge/go/internal/models"
)

var ErrUnknownEventType = errors.New("unknown live event type")
var ErrUnknownRegistration = errors.New("result update for unknown registration")

// CompetitionState holds the two materialized views for one competition.
type CompetitionState struct {
	Live    models.CompetitionLiveState
	Results []models.AthleteResult
}

// Clone returns a deep copy safe to hand across goroutines.
func (s CompetitionState) Clone() CompetitionState {
	out := CompetitionState{Live: s.Live.Clone()}
	if s.Results != nil {
		out.Results = make([]models.AthleteResult, len(s.Results))
		copy(out.Results, s.Results)
	}
	return out
}

// Effect tells the caller what follow-up action an event requires.
type Effect int

const (
	EffectNone Effect = iota
	// EffectReconcile means the delta stream cannot express the change
	// and a full scoreboard refetch is required.
	EffectReconcile
)

// Apply is a pure reducer: it never mutates the input state and performs no
// I/O. Deltas are applied last-write-wins in arrival order; frames carry no
// sequence numbers, so stale updates cannot be detected here. Full
// reconciliation covers any resulting drift.
func Apply(state CompetitionState, event *LiveEvent) (CompetitionState, Effect, error) {
	payload, err := ParseEventPayload(event)
	if err != nil {
		if errors.Is(err, ErrUnknownEventType) {
			return state, EffectNone, err
		}
		return state, EffectNone, fmt.Errorf("failed to parse %s payload: %w", event.Type, err)
	}

	switch event.Type {
	case EventTypeStateUpdate:
		next := state.Clone()
		next.Live = payload.(models.CompetitionLiveState)
		return next, EffectNone, nil

	case EventTypeTimerUpdate:
		p := payload.(TimerUpdatePayload)
		next := state.Clone()
		next.Live.Timer = models.LiftTimer{
			Running:          p.Running,
			RemainingSeconds: p.Remaining,
		}
		return next, EffectNone, nil

	case EventTypeResultUpdate:
		p := payload.(ResultUpdatePayload)
		idx := -1
		for i := range state.Results {
			if state.Results[i].RegistrationID == p.RegistrationID {
				idx = i
				break
			}
		}
		// Unknown ids are expected during roster transitions between
		// sessions. Deltas never insert rows; only reconciliation does.
		if idx < 0 {
			return state, EffectNone, ErrUnknownRegistration
		}
		next := state.Clone()
		mergeResult(&next.Results[idx], p)
		return next, EffectNone, nil

	case EventTypeCompetitionStart, EventTypeSessionComplete:
		return state, EffectReconcile, nil

	default:
		return state, EffectNone, ErrUnknownEventType
	}
}

// mergeResult shallow-merges the present fields of a partial update into a
// row. Derived fields (best lifts, total, sinclair, rank, medals) are stored
// as sent, never recomputed.
func mergeResult(row *models.AthleteResult, p ResultUpdatePayload) {
	if p.AthleteName != nil {
		row.AthleteName = *p.AthleteName
	}
	if p.WeightCategory != nil {
		row.WeightCategory = *p.WeightCategory
	}
	if p.LotNumber != nil {
		row.LotNumber = *p.LotNumber
	}
	if p.SessionNumber != nil {
		row.SessionNumber = *p.SessionNumber
	}
	if p.GroupNumber != nil {
		row.GroupNumber = *p.GroupNumber
	}
	if p.ClubName != nil {
		row.ClubName = *p.ClubName
	}
	if p.SnatchAttempts != nil {
		row.SnatchAttempts = *p.SnatchAttempts
	}
	if p.CleanJerkAttempts != nil {
		row.CleanJerkAttempts = *p.CleanJerkAttempts
	}
	if p.BestSnatch != nil {
		v := *p.BestSnatch
		row.BestSnatch = &v
	}
	if p.BestCleanJerk != nil {
		v := *p.BestCleanJerk
		row.BestCleanJerk = &v
	}
	if p.Total != nil {
		v := *p.Total
		row.Total = &v
	}
	if p.SinclairScore != nil {
		v := *p.SinclairScore
		row.SinclairScore = &v
	}
	if p.CategoryRank != nil {
		v := *p.CategoryRank
		row.CategoryRank = &v
	}
	if p.Medals != nil {
		row.Medals = *p.Medals
	}
}
