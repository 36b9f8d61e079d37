package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Team is a raid race sub-team. Name is unique within an event.
// Membership is the reverse lookup of participants whose TeamID points
// here; a team holds no member list of its own and is deleted when its
// last member leaves.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID        string    `bun:"team_id,pk,type:uuid" json:"teamID"`
	EventID   string    `bun:"event_id,notnull,type:uuid" json:"eventID"`
	Name      string    `bun:"team_name,notnull" json:"name"`
	CreatorID *string   `bun:"creator_discord_id" json:"creatorID,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
