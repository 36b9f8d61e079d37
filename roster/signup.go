package roster

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/clanops/eventbot/models"
)

// JoinOutcome says which of the signup transitions actually happened.
type JoinOutcome int

const (
	// JoinedPartaking: a capacity slot was free and taken.
	JoinedPartaking JoinOutcome = iota
	// JoinedPriorityAlternate: partaking was requested but the roster is
	// full; the user is queued ahead of ordinary alternates.
	JoinedPriorityAlternate
	// JoinedAlternate: the user signed up as an ordinary alternate.
	JoinedAlternate
	// AlreadySignedUp: the user already holds this exact role; nothing
	// changed.
	AlreadySignedUp
)

// JoinResult reports the outcome of a Join call.
type JoinResult struct {
	Outcome JoinOutcome
	Event   *models.Event
}

// Join signs a user up for an event as partaking or alternate.
//
// A partaking request against a full roster never errors: the user is
// recorded as a priority alternate instead. An alternate request keeps a
// previously earned priority flag. Re-joining with the role the user
// already holds changes nothing and reports AlreadySignedUp. The signup
// timestamp is set once, on first creation, and survives later role
// changes so promotion ordering stays fair.
func (s *Service) Join(ctx context.Context, eventID, discordID string, requested models.Role) (*JoinResult, error) {
	unlock := s.locks.lock(eventID)
	defer unlock()

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.StatusUpcoming {
		return nil, ErrEventNotJoinable
	}

	participants, err := s.store.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	r := NewRoster(participants)
	current := r.Find(discordID)

	if requested == models.RolePartaking && current != nil && current.Role == models.RolePartaking {
		return &JoinResult{Outcome: AlreadySignedUp, Event: event}, nil
	}

	var (
		role     models.Role
		priority bool
		outcome  JoinOutcome
	)
	switch requested {
	case models.RolePartaking:
		if !r.Full(event.Capacity) {
			role, priority, outcome = models.RolePartaking, false, JoinedPartaking
		} else {
			// Full roster: demote to priority alternate, never reject.
			role, priority, outcome = models.RoleAlternate, true, JoinedPriorityAlternate
		}
	case models.RoleAlternate:
		role, outcome = models.RoleAlternate, JoinedAlternate
		priority = current != nil && current.Role == models.RoleAlternate && current.PriorityAlternate
	default:
		return nil, fmt.Errorf("unknown signup role %q", requested)
	}

	if current != nil && current.Role == role && current.PriorityAlternate == priority {
		return &JoinResult{Outcome: AlreadySignedUp, Event: event}, nil
	}

	if err := s.store.UpsertParticipant(ctx, eventID, discordID, role, priority); err != nil {
		return nil, fmt.Errorf("upsert participant: %w", err)
	}

	s.log.Info("signup",
		zap.String("event_id", eventID),
		zap.String("discord_id", discordID),
		zap.String("role", string(role)),
		zap.Bool("priority", priority))

	s.presenter.RenderRoster(ctx, eventID)
	s.presenter.Announce(ctx, eventID, s.joinAnnouncement(ctx, event, discordID, outcome))

	return &JoinResult{Outcome: outcome, Event: event}, nil
}

func (s *Service) joinAnnouncement(ctx context.Context, event *models.Event, discordID string, outcome JoinOutcome) string {
	name := s.displayName(ctx, discordID)
	switch outcome {
	case JoinedPartaking:
		return fmt.Sprintf("**%s** has joined the fight for %q!", name, event.Name)
	case JoinedPriorityAlternate:
		return fmt.Sprintf("**%s** has joined the fight for %q as an alternate to be subbed in ASAP.", name, event.Name)
	default:
		return fmt.Sprintf("**%s** has joined %q as an alternate.", name, event.Name)
	}
}

// WithdrawResult reports a withdrawal and the promotion it triggered, if
// any.
type WithdrawResult struct {
	Event    *models.Event
	Promoted *models.Participant
}

// Withdraw removes a user's signup. If the withdrawn signup held a
// capacity slot, the single best-ranked alternate (priority first, then
// earliest signup) is promoted into the freed slot with its priority flag
// cleared. One withdrawal promotes at most one alternate.
func (s *Service) Withdraw(ctx context.Context, eventID, discordID string) (*WithdrawResult, error) {
	unlock := s.locks.lock(eventID)
	defer unlock()

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != models.StatusUpcoming {
		return nil, ErrEventNotJoinable
	}

	participants, err := s.store.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	r := NewRoster(participants)
	current := r.Find(discordID)
	if current == nil {
		return nil, ErrNotSignedUp
	}

	if err := s.store.DeleteParticipant(ctx, eventID, discordID); err != nil {
		return nil, fmt.Errorf("delete participant: %w", err)
	}

	result := &WithdrawResult{Event: event}
	if current.Role == models.RolePartaking {
		if alternates := r.Alternates(); len(alternates) > 0 {
			best := alternates[0]
			if err := s.store.SetParticipantRole(ctx, eventID, best.DiscordID, models.RolePartaking, false); err != nil {
				// The withdrawal itself stands; the slot just stays
				// open until the next transition.
				s.log.Error("promote alternate failed",
					zap.String("event_id", eventID),
					zap.String("discord_id", best.DiscordID),
					zap.Error(err))
			} else {
				best.Role = models.RolePartaking
				best.PriorityAlternate = false
				result.Promoted = &best
			}
		}
	}

	s.log.Info("withdrawal",
		zap.String("event_id", eventID),
		zap.String("discord_id", discordID),
		zap.Bool("promotion", result.Promoted != nil))

	s.presenter.RenderRoster(ctx, eventID)

	message := fmt.Sprintf("**%s** has returned to orbit.", s.displayName(ctx, discordID))
	if result.Promoted != nil {
		message += fmt.Sprintf("\n**%s** has been subbed in!", s.displayName(ctx, result.Promoted.DiscordID))
		s.presenter.Notify(ctx, result.Promoted.DiscordID,
			fmt.Sprintf("🎉 You've been promoted from Alternate to Partaking for the event: %q!", event.Name))
	}
	s.presenter.Announce(ctx, eventID, message)

	return result, nil
}
