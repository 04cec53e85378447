package models

import "time"

// RegistrationStatus defines the approval state of an athlete registration.
type RegistrationStatus string

const (
	RegistrationPending       RegistrationStatus = "pending"
	RegistrationConfirmed     RegistrationStatus = "confirmed"
	RegistrationFinalApproved RegistrationStatus = "final_approved"
	RegistrationRejected      RegistrationStatus = "rejected"
	RegistrationWithdrawn     RegistrationStatus = "withdrawn"
)

// Registration is an athlete entry for a competition.
type Registration struct {
	ID             string             `json:"id"`
	EventID        string             `json:"event_id"`
	AthleteName    string             `json:"athlete_name"`
	WeightCategory string             `json:"weight_category"`
	ClubName       string             `json:"club_name,omitempty"`
	Status         RegistrationStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Syncable reports whether a registration may be submitted to WL-System.
func (r Registration) Syncable() bool {
	return r.Status == RegistrationConfirmed || r.Status == RegistrationFinalApproved
}

// FilterSyncable returns the ids of registrations eligible for sync.
func FilterSyncable(regs []Registration) []string {
	ids := make([]string, 0, len(regs))
	for _, r := range regs {
		if r.Syncable() {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
