// cmd/addoperator/main.go
// Creates or updates an operator account in the database.
//
// Usage:
//
//	go run ./cmd/addoperator -username raidlead -password testing -discord-id 123456789 -admin
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/clanops/eventbot/config"
	bundb "github.com/clanops/eventbot/db"
	"github.com/clanops/eventbot/models"
)

func main() {
	username := flag.String("username", "", "username (required)")
	password := flag.String("password", "", "plain-text password (required)")
	discordID := flag.String("discord-id", "", "discord user id actions are attributed to (required)")
	admin := flag.Bool("admin", false, "grant admin rights")
	flag.Parse()

	if *username == "" || *password == "" || *discordID == "" {
		log.Fatal("-username, -password and -discord-id are all required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("bcrypt:", err)
	}

	cfg := config.Load()
	db := bundb.Setup(cfg)
	defer db.Close()

	operator := &models.Operator{
		Username:  *username,
		Password:  string(hash),
		DiscordID: *discordID,
		Admin:     *admin,
	}

	_, err = db.NewInsert().Model(operator).
		On("CONFLICT (username) DO UPDATE SET password = EXCLUDED.password, discord_id = EXCLUDED.discord_id, is_admin = EXCLUDED.is_admin").
		Exec(context.Background())
	if err != nil {
		log.Fatal("insert operator:", err)
	}

	fmt.Printf("operator %q saved\n", *username)
}
