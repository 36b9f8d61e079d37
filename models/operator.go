package models

import "github.com/uptrace/bun"

// Operator is an API account with a bcrypt-hashed password. DiscordID is
// the Discord identity actions are attributed to; Admin grants event
// management over events the operator did not create.
type Operator struct {
	bun.BaseModel `bun:"table:operators,alias:o"`

	ID        int    `bun:"id,pk,autoincrement" json:"id"`
	Username  string `bun:"username,notnull,unique" json:"username"`
	Password  string `bun:"password,notnull" json:"-"`
	DiscordID string `bun:"discord_id,notnull" json:"discordID"`
	Admin     bool   `bun:"is_admin,notnull,default:false" json:"admin"`
}
