package projection

import (
	"sort"

	"github.com/liftingsocial/wlbridge/go/internal/models"
)

// CellTone drives attempt cell rendering downstream.
type CellTone string

const (
	ToneGood    CellTone = "positive"
	ToneMissed  CellTone = "negative"
	ToneNeutral CellTone = "neutral"
)

// Medal is the single glyph rendered for a row, empty when none.
type Medal string

const (
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
	MedalNone   Medal = ""
)

// AttemptCell is one render-ready attempt.
type AttemptCell struct {
	WeightKg *float64              `json:"weight_kg,omitempty"`
	Result   models.AttemptOutcome `json:"result"`
	Tone     CellTone              `json:"tone"`
}

// DisplayRow is a render-ready scoreboard row.
type DisplayRow struct {
	RegistrationID string `json:"registration_id"`
	AthleteName    string `json:"athlete_name"`
	WeightCategory string `json:"weight_category"`
	ClubName       string `json:"club_name,omitempty"`
	LotNumber      int    `json:"lot_number"`

	Snatch    [3]AttemptCell `json:"snatch"`
	CleanJerk [3]AttemptCell `json:"clean_jerk"`

	BestSnatch    *float64 `json:"best_snatch,omitempty"`
	BestCleanJerk *float64 `json:"best_clean_jerk,omitempty"`
	Total         *float64 `json:"total,omitempty"`
	SinclairScore *float64 `json:"sinclair_score,omitempty"`
	CategoryRank  *int     `json:"category_rank,omitempty"`
	Medal         Medal    `json:"medal,omitempty"`
	Ranked        bool     `json:"ranked"`
}

// Project derives render-ready rows from raw results. Pure and
// deterministic: identical input yields identical output. Ranked rows sort
// by category rank within each weight category; rows without a total sort
// after all ranked rows, by lot number.
func Project(results []models.AthleteResult) []DisplayRow {
	rows := make([]DisplayRow, len(results))
	for i, r := range results {
		rows[i] = projectRow(r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.WeightCategory != b.WeightCategory {
			return a.WeightCategory < b.WeightCategory
		}
		if a.Ranked != b.Ranked {
			return a.Ranked
		}
		if a.Ranked {
			return *a.CategoryRank < *b.CategoryRank
		}
		return a.LotNumber < b.LotNumber
	})

	return rows
}

func projectRow(r models.AthleteResult) DisplayRow {
	row := DisplayRow{
		RegistrationID: r.RegistrationID,
		AthleteName:    r.AthleteName,
		WeightCategory: r.WeightCategory,
		ClubName:       r.ClubName,
		LotNumber:      r.LotNumber,
		BestSnatch:     r.BestSnatch,
		BestCleanJerk:  r.BestCleanJerk,
		Total:          r.Total,
		SinclairScore:  r.SinclairScore,
		CategoryRank:   r.CategoryRank,
		Medal:          medalFor(r.Medals),
		Ranked:         r.Ranked(),
	}
	for i, a := range r.SnatchAttempts {
		row.Snatch[i] = attemptCell(a)
	}
	for i, a := range r.CleanJerkAttempts {
		row.CleanJerk[i] = attemptCell(a)
	}
	return row
}

func attemptCell(a models.Attempt) AttemptCell {
	return AttemptCell{
		WeightKg: a.WeightKg,
		Result:   a.Result,
		Tone:     toneFor(a.Result),
	}
}

func toneFor(result models.AttemptOutcome) CellTone {
	switch result {
	case models.AttemptGoodLift:
		return ToneGood
	case models.AttemptNoLift:
		return ToneMissed
	default:
		return ToneNeutral
	}
}

// medalFor picks the first true flag in gold, silver, bronze order. The
// upstream data invariant guarantees at most one is set.
func medalFor(m models.Medals) Medal {
	switch {
	case m.Gold:
		return MedalGold
	case m.Silver:
		return MedalSilver
	case m.Bronze:
		return MedalBronze
	default:
		return MedalNone
	}
}
