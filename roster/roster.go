// Package roster implements the event signup and team formation state
// machine: fixed-capacity rosters with partaking and alternate roles,
// promotion of alternates on withdrawal, and raid race team partitioning.
// All mutations are serialized per event; operations on different events
// run in parallel.
package roster

import (
	"sort"

	"github.com/clanops/eventbot/models"
)

// Roster is a read-only snapshot of one event's participants.
type Roster struct {
	participants []models.Participant
}

// NewRoster wraps a participant list fetched from the store.
func NewRoster(participants []models.Participant) *Roster {
	return &Roster{participants: participants}
}

// Find returns the participant record for a user, or nil.
func (r *Roster) Find(discordID string) *models.Participant {
	for i := range r.participants {
		if r.participants[i].DiscordID == discordID {
			return &r.participants[i]
		}
	}
	return nil
}

// Partaking returns the participants holding capacity slots.
func (r *Roster) Partaking() []models.Participant {
	var out []models.Participant
	for _, p := range r.participants {
		if p.Role == models.RolePartaking {
			out = append(out, p)
		}
	}
	return out
}

// PartakingCount is recomputed from rows on every read rather than kept
// as a stored counter; the count must always agree with the rows it is
// validated against.
func (r *Roster) PartakingCount() int {
	n := 0
	for _, p := range r.participants {
		if p.Role == models.RolePartaking {
			n++
		}
	}
	return n
}

// Alternates returns the promotion queue: priority alternates first,
// then by earliest signup time, with Discord id as a stable tie-break.
func (r *Roster) Alternates() []models.Participant {
	var out []models.Participant
	for _, p := range r.participants {
		if p.Role == models.RoleAlternate {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PriorityAlternate != out[j].PriorityAlternate {
			return out[i].PriorityAlternate
		}
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].DiscordID < out[j].DiscordID
	})
	return out
}

// Full reports whether every capacity slot is taken.
func (r *Roster) Full(capacity int) bool {
	return r.PartakingCount() >= capacity
}
