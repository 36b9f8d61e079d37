// Package store implements persistence for events, participants, teams,
// members and operators over bun/PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/clanops/eventbot/models"
	"github.com/clanops/eventbot/roster"
)

// Store wraps the shared bun connection.
type Store struct {
	db *bun.DB
}

// New creates a Store backed by the given database.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// GetEvent fetches a single event by id.
func (s *Store) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event := &models.Event{}
	err := s.db.NewSelect().Model(event).
		Where("event_id = ?", eventID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roster.ErrEventNotFound
		}
		return nil, fmt.Errorf("select event %s: %w", eventID, err)
	}
	return event, nil
}

// ListParticipants returns every signup row for an event.
func (s *Store) ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := s.db.NewSelect().Model(&participants).
		Where("event_id = ?", eventID).
		Order("joined_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select participants for event %s: %w", eventID, err)
	}
	return participants, nil
}

// UpsertParticipant inserts or updates the (event, user) signup. On
// conflict the role and priority flag are replaced and any team
// reference is cleared; joined_at keeps its original value so promotion
// ordering is not reset by role changes.
func (s *Store) UpsertParticipant(ctx context.Context, eventID, discordID string, role models.Role, priority bool) error {
	now := time.Now().UTC()
	p := &models.Participant{
		EventID:           eventID,
		DiscordID:         discordID,
		Role:              role,
		PriorityAlternate: priority,
		JoinedAt:          now,
		UpdatedAt:         now,
	}
	_, err := s.db.NewInsert().Model(p).
		On("CONFLICT (event_id, discord_id) DO UPDATE").
		Set("signup_role = EXCLUDED.signup_role").
		Set("is_priority_alternate = EXCLUDED.is_priority_alternate").
		Set("team_id = NULL").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert participant %s on event %s: %w", discordID, eventID, err)
	}
	return nil
}

// SetParticipantRole flips role/priority in place, leaving joined_at and
// the team reference alone.
func (s *Store) SetParticipantRole(ctx context.Context, eventID, discordID string, role models.Role, priority bool) error {
	_, err := s.db.NewUpdate().Model((*models.Participant)(nil)).
		Set("signup_role = ?", role).
		Set("is_priority_alternate = ?", priority).
		Set("updated_at = ?", time.Now().UTC()).
		Where("event_id = ?", eventID).
		Where("discord_id = ?", discordID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update role for %s on event %s: %w", discordID, eventID, err)
	}
	return nil
}

// DeleteParticipant removes a signup row.
func (s *Store) DeleteParticipant(ctx context.Context, eventID, discordID string) error {
	_, err := s.db.NewDelete().Model((*models.Participant)(nil)).
		Where("event_id = ?", eventID).
		Where("discord_id = ?", discordID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete participant %s on event %s: %w", discordID, eventID, err)
	}
	return nil
}

// CreateTeam inserts a new team with a generated id.
func (s *Store) CreateTeam(ctx context.Context, eventID, name string, creatorID *string) (*models.Team, error) {
	team := &models.Team{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Name:      name,
		CreatorID: creatorID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(team).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert team %q on event %s: %w", name, eventID, err)
	}
	return team, nil
}

// DeleteTeam removes a team row.
func (s *Store) DeleteTeam(ctx context.Context, teamID string) error {
	_, err := s.db.NewDelete().Model((*models.Team)(nil)).
		Where("team_id = ?", teamID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete team %s: %w", teamID, err)
	}
	return nil
}

// ListTeams returns an event's teams in creation order.
func (s *Store) ListTeams(ctx context.Context, eventID string) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.NewSelect().Model(&teams).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select teams for event %s: %w", eventID, err)
	}
	return teams, nil
}

// SetParticipantTeam points a participant at a team, or clears the
// reference when teamID is nil.
func (s *Store) SetParticipantTeam(ctx context.Context, eventID, discordID string, teamID *string) error {
	_, err := s.db.NewUpdate().Model((*models.Participant)(nil)).
		Set("team_id = ?", teamID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("event_id = ?", eventID).
		Where("discord_id = ?", discordID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set team for %s on event %s: %w", discordID, eventID, err)
	}
	return nil
}

// CountTeamMembers counts participants referencing a team.
func (s *Store) CountTeamMembers(ctx context.Context, teamID string) (int, error) {
	count, err := s.db.NewSelect().Model((*models.Participant)(nil)).
		Where("team_id = ?", teamID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count members of team %s: %w", teamID, err)
	}
	return count, nil
}

// ReplaceTeams wipes the event's existing teams and writes the new
// assignment in one transaction, so a re-run replaces earlier teams
// instead of stacking duplicates and a failure leaves no half-written
// partition behind.
func (s *Store) ReplaceTeams(ctx context.Context, eventID string, assignments []roster.TeamAssignment) ([]models.Team, error) {
	teams := make([]models.Team, 0, len(assignments))
	now := time.Now().UTC()

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model((*models.Participant)(nil)).
			Set("team_id = NULL").
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear team references: %w", err)
		}
		if _, err := tx.NewDelete().Model((*models.Team)(nil)).
			Where("event_id = ?", eventID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete existing teams: %w", err)
		}

		for _, a := range assignments {
			team := models.Team{
				ID:        uuid.New().String(),
				EventID:   eventID,
				Name:      a.Name,
				CreatorID: a.CreatorID,
				CreatedAt: now,
			}
			if _, err := tx.NewInsert().Model(&team).Exec(ctx); err != nil {
				return fmt.Errorf("insert team %q: %w", a.Name, err)
			}
			for _, discordID := range a.Members {
				if _, err := tx.NewUpdate().Model((*models.Participant)(nil)).
					Set("team_id = ?", team.ID).
					Set("updated_at = ?", now).
					Where("event_id = ?", eventID).
					Where("discord_id = ?", discordID).
					Exec(ctx); err != nil {
					return fmt.Errorf("assign %s to team %q: %w", discordID, a.Name, err)
				}
			}
			for _, discordID := range a.Promoted {
				if _, err := tx.NewUpdate().Model((*models.Participant)(nil)).
					Set("signup_role = ?", models.RolePartaking).
					Set("is_priority_alternate = FALSE").
					Set("updated_at = ?", now).
					Where("event_id = ?", eventID).
					Where("discord_id = ?", discordID).
					Exec(ctx); err != nil {
					return fmt.Errorf("promote %s: %w", discordID, err)
				}
			}
			teams = append(teams, team)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replace teams for event %s: %w", eventID, err)
	}
	return teams, nil
}

// MarkReminderSent flips the monotonic reminder flag for an event.
func (s *Store) MarkReminderSent(ctx context.Context, eventID string) error {
	_, err := s.db.NewUpdate().Model((*models.Event)(nil)).
		Set("reminder_sent = TRUE").
		Set("updated_at = ?", time.Now().UTC()).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark reminder sent for event %s: %w", eventID, err)
	}
	return nil
}

// ListEventsNeedingReminder returns upcoming events starting inside the
// window whose reminder has not gone out yet.
func (s *Store) ListEventsNeedingReminder(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	var events []models.Event
	err := s.db.NewSelect().Model(&events).
		Where("status = ?", models.StatusUpcoming).
		Where("reminder_sent = FALSE").
		Where("starts_at >= ?", start).
		Where("starts_at <= ?", end).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select events needing reminder: %w", err)
	}
	return events, nil
}

// ListPartaking returns only the participants holding capacity slots.
func (s *Store) ListPartaking(ctx context.Context, eventID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := s.db.NewSelect().Model(&participants).
		Where("event_id = ?", eventID).
		Where("signup_role = ?", models.RolePartaking).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select partaking for event %s: %w", eventID, err)
	}
	return participants, nil
}
