package roster

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/clanops/eventbot/models"
)

// Store is the persistence surface the engines need. The bun-backed
// implementation lives in the store package; tests use an in-memory fake.
type Store interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error)
	// UpsertParticipant inserts or updates the (event, user) signup row.
	// On conflict it updates role and priority, clears any team
	// reference, and preserves the original joined-at timestamp.
	UpsertParticipant(ctx context.Context, eventID, discordID string, role models.Role, priority bool) error
	// SetParticipantRole changes role/priority in place, leaving the
	// team reference and joined-at timestamp untouched. Used for
	// promotions.
	SetParticipantRole(ctx context.Context, eventID, discordID string, role models.Role, priority bool) error
	DeleteParticipant(ctx context.Context, eventID, discordID string) error

	CreateTeam(ctx context.Context, eventID, name string, creatorID *string) (*models.Team, error)
	DeleteTeam(ctx context.Context, teamID string) error
	ListTeams(ctx context.Context, eventID string) ([]models.Team, error)
	SetParticipantTeam(ctx context.Context, eventID, discordID string, teamID *string) error
	CountTeamMembers(ctx context.Context, teamID string) (int, error)
	// ReplaceTeams atomically deletes every existing team for the event
	// (clearing member references), then creates one team per
	// assignment, pointing each member at it and applying the listed
	// promotions. Created teams are returned in assignment order.
	ReplaceTeams(ctx context.Context, eventID string, assignments []TeamAssignment) ([]models.Team, error)

	// DisplayNames resolves Discord ids to linked Bungie display names.
	// Ids with no linked account are absent from the result.
	DisplayNames(ctx context.Context, discordIDs []string) (map[string]string, error)
}

// Presenter pushes roster state out to the chat platform. All methods are
// best-effort: implementations log failures and never propagate them.
type Presenter interface {
	RenderRoster(ctx context.Context, eventID string)
	Announce(ctx context.Context, eventID, message string)
	Notify(ctx context.Context, discordID, message string)
}

// Service applies signup and team formation transitions against the
// store, serialized per event.
type Service struct {
	store     Store
	presenter Presenter
	log       *zap.Logger

	locks eventLocks

	// shuffle must be an unbiased permutation; swapped for a seeded one
	// in tests.
	shuffle func(n int, swap func(i, j int))
}

// NewService wires the engines to their collaborators.
func NewService(store Store, presenter Presenter, log *zap.Logger) *Service {
	return &Service{
		store:     store,
		presenter: presenter,
		log:       log,
		shuffle:   rand.Shuffle,
	}
}

// displayName returns the member's linked Bungie name, or a Discord
// mention when no account is linked or the lookup fails.
func (s *Service) displayName(ctx context.Context, discordID string) string {
	names, err := s.store.DisplayNames(ctx, []string{discordID})
	if err != nil {
		s.log.Warn("display name lookup failed", zap.String("discord_id", discordID), zap.Error(err))
		return mention(discordID)
	}
	if name, ok := names[discordID]; ok {
		return name
	}
	return mention(discordID)
}

func mention(discordID string) string {
	return fmt.Sprintf("<@%s>", discordID)
}
