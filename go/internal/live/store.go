package live

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ChangeListener is notified after a competition's state changes. Listeners
// receive a deep copy and may retain it.
type ChangeListener func(competitionID string, state CompetitionState, event *LiveEvent)

// StateManager owns the materialized views for all subscribed competitions.
// All mutation funnels through ApplyEvent and Replace; reads get copies.
type StateManager struct {
	mu        sync.RWMutex
	states    map[string]CompetitionState
	listeners []ChangeListener
}

// NewStateManager creates an empty state manager.
func NewStateManager() *StateManager {
	return &StateManager{
		states: make(map[string]CompetitionState),
	}
}

// OnChange registers a change listener. Register before events start
// flowing; the listener slice is not guarded after that.
func (m *StateManager) OnChange(fn ChangeListener) {
	m.listeners = append(m.listeners, fn)
}

// GetState returns a deep copy of a competition's state.
func (m *StateManager) GetState(competitionID string) (CompetitionState, bool) {
	m.mu.RLock()
	state, ok := m.states[competitionID]
	m.mu.RUnlock()
	if !ok {
		return CompetitionState{}, false
	}
	return state.Clone(), true
}

// Replace overwrites a competition's state with a reconciliation snapshot.
// It never merges: a full fetch is the source of truth and must win over
// any deltas applied since the fetch started.
func (m *StateManager) Replace(competitionID string, state CompetitionState) {
	m.mu.Lock()
	m.states[competitionID] = state.Clone()
	m.mu.Unlock()

	m.notify(competitionID, state, nil)
}

// ApplyEvent runs one inbound frame through the reducer and stores the
// result. The returned effect tells the caller whether a reconciliation
// fetch is required.
func (m *StateManager) ApplyEvent(event *LiveEvent) Effect {
	m.mu.Lock()
	state := m.states[event.CompetitionID]

	next, effect, err := Apply(state, event)
	if err != nil {
		m.mu.Unlock()
		if errors.Is(err, ErrUnknownRegistration) {
			// Expected during roster transitions between sessions.
			log.Debug().
				Str("competition_id", event.CompetitionID).
				Str("event_type", string(event.Type)).
				Msg("dropped result update for unknown registration")
		} else {
			log.Warn().
				Err(err).
				Str("competition_id", event.CompetitionID).
				Str("event_type", string(event.Type)).
				Msg("failed to apply live event")
		}
		return effect
	}

	m.states[event.CompetitionID] = next
	m.mu.Unlock()

	m.notify(event.CompetitionID, next, event)
	return effect
}

// Remove discards a competition's state, e.g. when the last subscriber
// leaves. State is not persisted; the next subscribe reconciles from scratch.
func (m *StateManager) Remove(competitionID string) {
	m.mu.Lock()
	delete(m.states, competitionID)
	m.mu.Unlock()
}

// Competitions returns the ids currently held in memory.
func (m *StateManager) Competitions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	return ids
}

func (m *StateManager) notify(competitionID string, state CompetitionState, event *LiveEvent) {
	for _, fn := range m.listeners {
		fn(competitionID, state.Clone(), event)
	}
}
