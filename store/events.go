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

// EventFilter selects which events ListEvents returns.
type EventFilter string

const (
	FilterUpcoming EventFilter = "upcoming"
	FilterPast     EventFilter = "past"
	FilterCreated  EventFilter = "my_created"
	FilterSignedUp EventFilter = "my_signedup"
	FilterAll      EventFilter = "all"
)

const listLimit = 10

// CreateEvent inserts a new event with a generated id and returns it.
func (s *Store) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	now := time.Now().UTC()
	event.ID = uuid.New().String()
	event.Status = models.StatusUpcoming
	event.CreatedAt = now
	event.UpdatedAt = now

	if _, err := s.db.NewInsert().Model(event).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert event %q: %w", event.Name, err)
	}
	return event, nil
}

// UpdateEvent persists the event's mutable fields.
func (s *Store) UpdateEvent(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().Model(event).
		Column("event_name", "description", "starts_at", "max_participants",
			"difficulty", "special_modifier", "status", "channel_id", "message_id", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update event %s: %w", event.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return roster.ErrEventNotFound
	}
	return nil
}

// DeleteEvent removes an event and everything hanging off it.
func (s *Store) DeleteEvent(ctx context.Context, eventID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*models.Participant)(nil)).
			Where("event_id = ?", eventID).Exec(ctx); err != nil {
			return fmt.Errorf("delete participants: %w", err)
		}
		if _, err := tx.NewDelete().Model((*models.Team)(nil)).
			Where("event_id = ?", eventID).Exec(ctx); err != nil {
			return fmt.Errorf("delete teams: %w", err)
		}
		res, err := tx.NewDelete().Model((*models.Event)(nil)).
			Where("event_id = ?", eventID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return roster.ErrEventNotFound
		}
		return nil
	})
}

// ListEvents returns up to ten events matching the filter, with optional
// type filter. actorID scopes the "mine" filters.
func (s *Store) ListEvents(ctx context.Context, filter EventFilter, eventType models.EventType, actorID string) ([]models.Event, error) {
	var events []models.Event
	q := s.db.NewSelect().Model(&events)

	now := time.Now().UTC()
	switch filter {
	case FilterPast:
		q = q.Where("status IN (?, ?) OR starts_at < ?",
			models.StatusCompleted, models.StatusCancelled, now).
			Order("starts_at DESC")
	case FilterCreated:
		q = q.Where("creator_discord_id = ?", actorID).Order("starts_at DESC")
	case FilterSignedUp:
		q = q.Where("event_id IN (SELECT event_id FROM participants WHERE discord_id = ?)", actorID).
			Order("starts_at DESC")
	case FilterAll:
		q = q.Order("starts_at DESC")
	default: // FilterUpcoming
		q = q.Where("status = ?", models.StatusUpcoming).
			Where("starts_at > ?", now).
			Order("starts_at ASC")
	}

	if eventType != "" {
		q = q.Where("event_type = ?", eventType)
	}

	if err := q.Limit(listLimit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// SignupCount returns how many participants an event has in total.
func (s *Store) SignupCount(ctx context.Context, eventID string) (int, error) {
	count, err := s.db.NewSelect().Model((*models.Participant)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count signups for event %s: %w", eventID, err)
	}
	return count, nil
}

// GetOperator looks up an API operator by username.
func (s *Store) GetOperator(ctx context.Context, username string) (*models.Operator, error) {
	op := &models.Operator{}
	err := s.db.NewSelect().Model(op).
		Where("username = ?", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("select operator %q: %w", username, err)
	}
	return op, nil
}
