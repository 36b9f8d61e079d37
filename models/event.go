package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EventType classifies what kind of activity an event is.
type EventType string

const (
	EventRaid     EventType = "Raid"
	EventDungeon  EventType = "Dungeon"
	EventRaidRace EventType = "Raid Race"
	EventCustom   EventType = "Custom"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusActive    EventStatus = "active"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// TeamFormation selects how raid race teams are put together.
type TeamFormation string

const (
	FormationRandom TeamFormation = "random"
	FormationChoose TeamFormation = "choose"
)

// Event is a scheduled clan activity with a fixed-capacity roster.
// TeamFormation and PlayersPerTeam are only meaningful when Type is
// EventRaidRace; both stay nil for every other type.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID             string         `bun:"event_id,pk,type:uuid" json:"eventID"`
	CreatorID      string         `bun:"creator_discord_id,notnull" json:"creatorID"`
	Name           string         `bun:"event_name,notnull" json:"name"`
	Description    string         `bun:"description,notnull" json:"description"`
	Type           EventType      `bun:"event_type,notnull" json:"type"`
	Difficulty     *string        `bun:"difficulty" json:"difficulty,omitempty"`
	Modifier       *string        `bun:"special_modifier" json:"modifier,omitempty"`
	StartsAt       time.Time      `bun:"starts_at,notnull" json:"startsAt"`
	Capacity       int            `bun:"max_participants,notnull" json:"capacity"`
	Status         EventStatus    `bun:"status,notnull" json:"status"`
	TeamFormation  *TeamFormation `bun:"team_formation" json:"teamFormation,omitempty"`
	PlayersPerTeam *int           `bun:"players_per_team" json:"playersPerTeam,omitempty"`
	ChannelID      *string        `bun:"channel_id" json:"channelID,omitempty"`
	MessageID      *string        `bun:"message_id" json:"messageID,omitempty"`
	ReminderSent   bool           `bun:"reminder_sent,notnull,default:false" json:"reminderSent"`
	CreatedAt      time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// IsRaidRace reports whether race team operations apply to this event.
func (e *Event) IsRaidRace() bool {
	return e.Type == EventRaidRace
}

// TeamSize returns the configured players-per-team and whether it is usable.
func (e *Event) TeamSize() (int, bool) {
	if e.PlayersPerTeam == nil || *e.PlayersPerTeam <= 0 {
		return 0, false
	}
	return *e.PlayersPerTeam, true
}
