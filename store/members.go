package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/clanops/eventbot/models"
)

// GetMember fetches a member by Discord id, or nil when unknown.
func (s *Store) GetMember(ctx context.Context, discordID string) (*models.Member, error) {
	member := &models.Member{}
	err := s.db.NewSelect().Model(member).
		Where("discord_id = ?", discordID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select member %s: %w", discordID, err)
	}
	return member, nil
}

// UpsertMember saves a member's linked Bungie account details.
func (s *Store) UpsertMember(ctx context.Context, member *models.Member) error {
	_, err := s.db.NewInsert().Model(member).
		On("CONFLICT (discord_id) DO UPDATE").
		Set("bungie_display_name = EXCLUDED.bungie_display_name").
		Set("bungie_display_name_code = EXCLUDED.bungie_display_name_code").
		Set("bungie_membership_id = EXCLUDED.bungie_membership_id").
		Set("bungie_membership_type = EXCLUDED.bungie_membership_type").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert member %s: %w", member.DiscordID, err)
	}
	return nil
}

// DisplayNames maps Discord ids to "Name#1234" style Bungie display
// names. Ids without a linked account are omitted.
func (s *Store) DisplayNames(ctx context.Context, discordIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(discordIDs))
	if len(discordIDs) == 0 {
		return names, nil
	}

	var members []models.Member
	err := s.db.NewSelect().Model(&members).
		Where("discord_id IN (?)", bun.In(discordIDs)).
		Where("bungie_display_name IS NOT NULL").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select member names: %w", err)
	}

	for _, m := range members {
		if m.BungieName == nil {
			continue
		}
		name := *m.BungieName
		if m.BungieCode != nil {
			name = fmt.Sprintf("%s#%04d", name, *m.BungieCode)
		}
		names[m.DiscordID] = name
	}
	return names, nil
}
