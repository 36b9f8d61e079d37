package roster

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clanops/eventbot/models"
)

// TeamAssignment describes one team to be written by ReplaceTeams.
// Promoted lists the members who were alternates backfilled into the
// team and must be flipped to partaking with priority cleared.
type TeamAssignment struct {
	Name      string
	CreatorID *string
	Members   []string
	Promoted  []string
}

// FormedTeam pairs a persisted team with its assigned members.
type FormedTeam struct {
	Team       models.Team
	Members    []string
	Undersized bool
}

// AssignResult is the operator-facing summary of a random assignment.
type AssignResult struct {
	Event               *models.Event
	Teams               []FormedTeam
	Promoted            []string
	RemainingAlternates []string
}

// raceEvent validates the gate every team operation shares: an upcoming
// raid race in the given formation mode with players-per-team set.
func (s *Service) raceEvent(ctx context.Context, eventID string, mode models.TeamFormation) (*models.Event, int, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	size, ok := event.TeamSize()
	if !event.IsRaidRace() || !ok {
		return nil, 0, ErrInvalidTeamOperation
	}
	if event.TeamFormation == nil || *event.TeamFormation != mode {
		return nil, 0, ErrWrongMode
	}
	if event.Status != models.StatusUpcoming {
		return nil, 0, ErrNotUpcoming
	}
	return event, size, nil
}

// AssignRandomTeams shuffles the partaking list and partitions it into
// teams of the event's configured size, backfilling short teams from the
// alternate queue (each consumed alternate is promoted to partaking). A
// trailing short team is kept as undersized rather than discarded.
//
// Re-running replaces any previously formed teams instead of stacking
// new ones next to them; the delete-and-recreate happens in a single
// transaction inside the store.
func (s *Service) AssignRandomTeams(ctx context.Context, eventID string) (*AssignResult, error) {
	unlock := s.locks.lock(eventID)
	defer unlock()

	event, size, err := s.raceEvent(ctx, eventID, models.FormationRandom)
	if err != nil {
		return nil, err
	}

	participants, err := s.store.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	r := NewRoster(participants)
	partaking := r.Partaking()
	alternates := r.Alternates()

	if len(partaking) < size {
		return nil, ErrNotEnoughPlayers
	}

	s.shuffle(len(partaking), func(i, j int) {
		partaking[i], partaking[j] = partaking[j], partaking[i]
	})

	var (
		assignments []TeamAssignment
		undersized  []bool
		promoted    []string
		altIdx      int
	)
	for i := 0; i < len(partaking); i += size {
		end := i + size
		if end > len(partaking) {
			end = len(partaking)
		}

		a := TeamAssignment{Name: teamName(len(assignments))}
		for _, p := range partaking[i:end] {
			a.Members = append(a.Members, p.DiscordID)
		}
		for len(a.Members) < size && altIdx < len(alternates) {
			alt := alternates[altIdx]
			altIdx++
			a.Members = append(a.Members, alt.DiscordID)
			a.Promoted = append(a.Promoted, alt.DiscordID)
			promoted = append(promoted, alt.DiscordID)
		}

		short := len(a.Members) < size
		if short {
			a.Name += " (Undersized)"
		}
		assignments = append(assignments, a)
		undersized = append(undersized, short)
	}

	teams, err := s.store.ReplaceTeams(ctx, eventID, assignments)
	if err != nil {
		return nil, fmt.Errorf("replace teams: %w", err)
	}

	result := &AssignResult{Event: event, Promoted: promoted}
	for i, t := range teams {
		result.Teams = append(result.Teams, FormedTeam{
			Team:       t,
			Members:    assignments[i].Members,
			Undersized: undersized[i],
		})
	}
	for _, alt := range alternates[altIdx:] {
		result.RemainingAlternates = append(result.RemainingAlternates, alt.DiscordID)
	}

	s.log.Info("random teams assigned",
		zap.String("event_id", eventID),
		zap.Int("teams", len(result.Teams)),
		zap.Int("promoted", len(promoted)),
		zap.Int("remaining_alternates", len(result.RemainingAlternates)))

	s.presenter.RenderRoster(ctx, eventID)
	s.presenter.Announce(ctx, eventID, s.assignmentAnnouncement(ctx, result))

	return result, nil
}

func (s *Service) assignmentAnnouncement(ctx context.Context, result *AssignResult) string {
	var ids []string
	for _, t := range result.Teams {
		ids = append(ids, t.Members...)
	}
	ids = append(ids, result.RemainingAlternates...)
	names, err := s.store.DisplayNames(ctx, ids)
	if err != nil {
		s.log.Warn("display name lookup failed", zap.Error(err))
		names = map[string]string{}
	}
	display := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return mention(id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚔️ Teams assigned for %q! ⚔️\n", result.Event.Name)
	for _, t := range result.Teams {
		fmt.Fprintf(&b, "\n🔰 **%s**\n", t.Team.Name)
		for _, id := range t.Members {
			fmt.Fprintf(&b, "- %s\n", display(id))
		}
	}
	if len(result.RemainingAlternates) > 0 {
		b.WriteString("\n🛡️ Available alternates:\n")
		for _, id := range result.RemainingAlternates {
			fmt.Fprintf(&b, "- %s\n", display(id))
		}
	}
	return b.String()
}

// partakingOffTeam loads the caller's participant row and applies the
// role and membership checks shared by CreateTeam and JoinTeam.
func (s *Service) partakingOffTeam(ctx context.Context, eventID, discordID string) (*models.Participant, error) {
	participants, err := s.store.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	current := NewRoster(participants).Find(discordID)
	if current == nil || current.Role != models.RolePartaking {
		return nil, ErrNotPartaking
	}
	if current.TeamID != nil {
		return nil, ErrAlreadyOnTeam
	}
	return current, nil
}

// CreateTeam makes a new self-service team and puts the caller on it.
// A blank name picks the first unused default name.
func (s *Service) CreateTeam(ctx context.Context, eventID, discordID, name string) (*models.Team, error) {
	unlock := s.locks.lock(eventID)
	defer unlock()

	event, _, err := s.raceEvent(ctx, eventID, models.FormationChoose)
	if err != nil {
		return nil, err
	}
	if _, err := s.partakingOffTeam(ctx, eventID, discordID); err != nil {
		return nil, err
	}

	teams, err := s.store.ListTeams(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	taken := make(map[string]bool, len(teams))
	for _, t := range teams {
		taken[t.Name] = true
	}

	name = strings.TrimSpace(name)
	if name == "" {
		for i := 0; ; i++ {
			if candidate := teamName(i); !taken[candidate] {
				name = candidate
				break
			}
		}
	} else if taken[name] {
		return nil, ErrNameTaken
	}

	team, err := s.store.CreateTeam(ctx, eventID, name, &discordID)
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	if err := s.store.SetParticipantTeam(ctx, eventID, discordID, &team.ID); err != nil {
		return nil, fmt.Errorf("assign creator to team: %w", err)
	}

	s.log.Info("team created",
		zap.String("event_id", eventID),
		zap.String("team_id", team.ID),
		zap.String("team_name", name),
		zap.String("discord_id", discordID))

	s.presenter.RenderRoster(ctx, eventID)
	s.presenter.Announce(ctx, eventID,
		fmt.Sprintf("**%s** has formed team %q for %q.", s.displayName(ctx, discordID), name, event.Name))

	return team, nil
}

// JoinTeam puts the caller on an existing team by name, capacity
// permitting.
func (s *Service) JoinTeam(ctx context.Context, eventID, discordID, name string) (*models.Team, error) {
	unlock := s.locks.lock(eventID)
	defer unlock()

	_, size, err := s.raceEvent(ctx, eventID, models.FormationChoose)
	if err != nil {
		return nil, err
	}
	if _, err := s.partakingOffTeam(ctx, eventID, discordID); err != nil {
		return nil, err
	}

	teams, err := s.store.ListTeams(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	var team *models.Team
	for i := range teams {
		if teams[i].Name == strings.TrimSpace(name) {
			team = &teams[i]
			break
		}
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}

	count, err := s.store.CountTeamMembers(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("count team members: %w", err)
	}
	if count >= size {
		return nil, ErrTeamFull
	}

	if err := s.store.SetParticipantTeam(ctx, eventID, discordID, &team.ID); err != nil {
		return nil, fmt.Errorf("join team: %w", err)
	}

	s.log.Info("team joined",
		zap.String("event_id", eventID),
		zap.String("team_id", team.ID),
		zap.String("discord_id", discordID))

	s.presenter.RenderRoster(ctx, eventID)
	return team, nil
}

// LeaveResult reports whether leaving emptied (and so disbanded) the
// team.
type LeaveResult struct {
	TeamName  string
	Disbanded bool
}

// LeaveTeam clears the caller's team reference. A team left with zero
// members is deleted, never kept empty.
func (s *Service) LeaveTeam(ctx context.Context, eventID, discordID string) (*LeaveResult, error) {
	unlock := s.locks.lock(eventID)
	defer unlock()

	if _, _, err := s.raceEvent(ctx, eventID, models.FormationChoose); err != nil {
		return nil, err
	}

	participants, err := s.store.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	current := NewRoster(participants).Find(discordID)
	if current == nil || current.TeamID == nil {
		return nil, ErrNotOnTeam
	}
	teamID := *current.TeamID

	teams, err := s.store.ListTeams(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	result := &LeaveResult{}
	for _, t := range teams {
		if t.ID == teamID {
			result.TeamName = t.Name
			break
		}
	}

	if err := s.store.SetParticipantTeam(ctx, eventID, discordID, nil); err != nil {
		return nil, fmt.Errorf("leave team: %w", err)
	}

	remaining, err := s.store.CountTeamMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("count team members: %w", err)
	}
	if remaining == 0 {
		if err := s.store.DeleteTeam(ctx, teamID); err != nil {
			return nil, fmt.Errorf("disband team: %w", err)
		}
		result.Disbanded = true
	}

	s.log.Info("team left",
		zap.String("event_id", eventID),
		zap.String("team_id", teamID),
		zap.String("discord_id", discordID),
		zap.Bool("disbanded", result.Disbanded))

	s.presenter.RenderRoster(ctx, eventID)
	return result, nil
}
