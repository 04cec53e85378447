package models

// AttemptOutcome is the referee-judged result of a single attempt.
type AttemptOutcome string

const (
	AttemptGoodLift     AttemptOutcome = "good_lift"
	AttemptNoLift       AttemptOutcome = "no_lift"
	AttemptNotAttempted AttemptOutcome = "not_attempted"
)

// Attempt is one of the three attempts an athlete gets per lift type.
type Attempt struct {
	WeightKg *float64       `json:"weight_kg,omitempty"`
	Result   AttemptOutcome `json:"result"`
}

// Medals flags are mutually exclusive; at most one is true.
type Medals struct {
	Gold   bool `json:"gold"`
	Silver bool `json:"silver"`
	Bronze bool `json:"bronze"`
}

// AthleteResult is one scoreboard row, keyed by registration id.
// BestSnatch, BestCleanJerk, Total, SinclairScore, CategoryRank and Medals
// are computed server-side; the bridge never recomputes them.
type AthleteResult struct {
	RegistrationID string `json:"registration_id"`
	AthleteName    string `json:"athlete_name"`
	WeightCategory string `json:"weight_category"`
	LotNumber      int    `json:"lot_number"`
	SessionNumber  int    `json:"session_number"`
	GroupNumber    int    `json:"group_number"`
	ClubName       string `json:"club_name,omitempty"`

	SnatchAttempts    [3]Attempt `json:"snatch_attempts"`
	CleanJerkAttempts [3]Attempt `json:"clean_jerk_attempts"`

	BestSnatch    *float64 `json:"best_snatch,omitempty"`
	BestCleanJerk *float64 `json:"best_clean_jerk,omitempty"`
	Total         *float64 `json:"total,omitempty"`
	SinclairScore *float64 `json:"sinclair_score,omitempty"`
	CategoryRank  *int     `json:"category_rank,omitempty"`
	Medals        Medals   `json:"medals"`
}

// Ranked reports whether the athlete has totaled and holds a category rank.
func (r AthleteResult) Ranked() bool {
	return r.Total != nil && r.CategoryRank != nil
}
