package live

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/liftingsocial/wlbridge/go/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func makeEvent(t *testing.T, competitionID string, eventType EventType, data interface{}) *LiveEvent {
	t.Helper()

	event := &LiveEvent{
		CompetitionID: competitionID,
		Type:          eventType,
		Timestamp:     time.Date(2025, 6, 14, 10, 30, 0, 0, time.UTC),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		event.Data = raw
	}
	return event
}

func baseState() CompetitionState {
	return CompetitionState{
		Live: models.CompetitionLiveState{
			Session:  1,
			Group:    "A",
			LiftType: models.LiftTypeSnatch,
			CurrentAthlete: models.CurrentAthlete{
				Name:          "Chamari Perera",
				AttemptNumber: 2,
				WeightKg:      85,
			},
			Timer: models.LiftTimer{Running: true, RemainingSeconds: 45},
		},
		Results: []models.AthleteResult{
			{
				RegistrationID: "r1",
				AthleteName:    "Chamari Perera",
				WeightCategory: "W59",
				LotNumber:      4,
				BestSnatch:     floatPtr(140),
			},
			{
				RegistrationID: "r2",
				AthleteName:    "Nuwan Silva",
				WeightCategory: "M73",
				LotNumber:      7,
			},
		},
	}
}

func TestApplyResultUpdateMergesOnlyPresentFields(t *testing.T) {
	state := baseState()

	event := makeEvent(t, "c1", EventTypeResultUpdate, map[string]interface{}{
		"registration_id": "r1",
		"best_clean_jerk": 160,
	})

	next, effect, err := Apply(state, event)
	require.NoError(t, err)
	require.Equal(t, EffectNone, effect)

	row := next.Results[0]
	require.Equal(t, floatPtr(160.0), row.BestCleanJerk)
	require.Equal(t, floatPtr(140.0), row.BestSnatch, "untouched field must survive the merge")
	require.Nil(t, row.Total, "total is server-authoritative and never recomputed locally")
	require.Equal(t, "Chamari Perera", row.AthleteName)
}

func TestApplyResultUpdateUnknownIDIsDropped(t *testing.T) {
	state := baseState()

	event := makeEvent(t, "c1", EventTypeResultUpdate, map[string]interface{}{
		"registration_id": "r999",
		"total":           300,
	})

	next, effect, err := Apply(state, event)
	require.ErrorIs(t, err, ErrUnknownRegistration)
	require.Equal(t, EffectNone, effect)
	require.Equal(t, state.Results, next.Results, "unknown ids never insert or modify rows")
}

func TestApplyStateUpdateReplacesLiveState(t *testing.T) {
	state := baseState()

	replacement := models.CompetitionLiveState{
		Session:  2,
		Group:    "B",
		LiftType: models.LiftTypeCleanJerk,
		CurrentAthlete: models.CurrentAthlete{
			Name:          "Nuwan Silva",
			AttemptNumber: 1,
			WeightKg:      150,
		},
		Timer: models.LiftTimer{Running: false, RemainingSeconds: 60},
		RefereeDecisions: map[string]models.RefereeDecision{
			"ref1": models.DecisionWhite,
		},
	}

	next, effect, err := Apply(state, makeEvent(t, "c1", EventTypeStateUpdate, replacement))
	require.NoError(t, err)
	require.Equal(t, EffectNone, effect)
	require.Equal(t, replacement, next.Live)
	require.Equal(t, state.Results, next.Results, "results view untouched by state updates")
}

func TestApplyTimerUpdateTouchesTimerOnly(t *testing.T) {
	state := baseState()

	event := makeEvent(t, "c1", EventTypeTimerUpdate, TimerUpdatePayload{Running: false, Remaining: 12})

	next, effect, err := Apply(state, event)
	require.NoError(t, err)
	require.Equal(t, EffectNone, effect)
	require.Equal(t, models.LiftTimer{Running: false, RemainingSeconds: 12}, next.Live.Timer)

	// Everything but the timer must be untouched.
	expected := state.Live
	expected.Timer = next.Live.Timer
	require.Equal(t, expected, next.Live)
}

func TestApplySignalEventsRequireReconciliation(t *testing.T) {
	cases := []struct {
		name      string
		eventType EventType
	}{
		{name: "competition start", eventType: EventTypeCompetitionStart},
		{name: "session complete", eventType: EventTypeSessionComplete},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := baseState()
			next, effect, err := Apply(state, makeEvent(t, "c1", tc.eventType, nil))
			require.NoError(t, err)
			require.Equal(t, EffectReconcile, effect)
			require.Equal(t, state, next, "signal events carry no payload to apply")
		})
	}
}

func TestApplyUnknownEventType(t *testing.T) {
	state := baseState()
	_, effect, err := Apply(state, makeEvent(t, "c1", EventType("roster_shuffle"), nil))
	require.ErrorIs(t, err, ErrUnknownEventType)
	require.Equal(t, EffectNone, effect)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	state := baseState()

	event := makeEvent(t, "c1", EventTypeResultUpdate, map[string]interface{}{
		"registration_id": "r1",
		"best_snatch":     143,
		"total":           303,
	})

	_, _, err := Apply(state, event)
	require.NoError(t, err)

	require.Equal(t, floatPtr(140.0), state.Results[0].BestSnatch, "reducer must not mutate its input")
	require.Nil(t, state.Results[0].Total)
}
