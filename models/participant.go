package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Role is a participant's signup role on an event roster.
type Role string

const (
	RolePartaking Role = "partaking"
	RoleAlternate Role = "alternate"
)

// Participant is one user's signup on one event. (event_id, discord_id)
// is unique. PriorityAlternate is only meaningful while Role is
// RoleAlternate: it marks someone who was bumped from a partaking slot
// and should be first back in when one frees up.
type Participant struct {
	bun.BaseModel `bun:"table:participants,alias:p"`

	ID                int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID           string    `bun:"event_id,notnull,type:uuid" json:"eventID"`
	DiscordID         string    `bun:"discord_id,notnull" json:"discordID"`
	Role              Role      `bun:"signup_role,notnull" json:"role"`
	PriorityAlternate bool      `bun:"is_priority_alternate,notnull,default:false" json:"priorityAlternate"`
	TeamID            *string   `bun:"team_id,type:uuid" json:"teamID,omitempty"`
	JoinedAt          time.Time `bun:"joined_at,nullzero,notnull,default:current_timestamp" json:"joinedAt"`
	UpdatedAt         time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
