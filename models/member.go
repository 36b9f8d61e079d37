package models

import "github.com/uptrace/bun"

// Member is a clan member keyed by Discord id, with an optional linked
// Bungie account used for display names on rosters.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	DiscordID          string  `bun:"discord_id,pk" json:"discordID"`
	BungieName         *string `bun:"bungie_display_name" json:"bungieName,omitempty"`
	BungieCode         *int    `bun:"bungie_display_name_code" json:"bungieCode,omitempty"`
	BungieMembershipID *string `bun:"bungie_membership_id" json:"bungieMembershipID,omitempty"`
	BungiePlatform     *int    `bun:"bungie_membership_type" json:"bungiePlatform,omitempty"`
}
