// Package discord renders roster state into the clan's Discord server:
// an embed per event kept up to date in its channel, public feed lines,
// and direct messages. Every delivery is best-effort; failures are
// logged and never surfaced to the operation that triggered them.
package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/clanops/eventbot/models"
)

// Store is the read surface needed to render an event.
type Store interface {
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)
	ListParticipants(ctx context.Context, eventID string) ([]models.Participant, error)
	ListTeams(ctx context.Context, eventID string) ([]models.Team, error)
	DisplayNames(ctx context.Context, discordIDs []string) (map[string]string, error)
}

// Announcer is the discordgo-backed presenter.
type Announcer struct {
	session *discordgo.Session
	store   Store
	log     *zap.Logger
}

// NewAnnouncer opens a REST-only Discord session with the given bot
// token. No gateway connection is made; everything here is plain API
// calls.
func NewAnnouncer(token string, store Store, log *zap.Logger) (*Announcer, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Announcer{session: session, store: store, log: log}, nil
}

// PublishEvent posts the initial embed for a freshly created event to
// its channel and returns the new message's id so it can be edited in
// place from then on.
func (a *Announcer) PublishEvent(ctx context.Context, event *models.Event) (string, error) {
	if event.ChannelID == nil {
		return "", fmt.Errorf("event %s has no channel", event.ID)
	}
	embed, err := a.BuildEmbed(ctx, event)
	if err != nil {
		return "", fmt.Errorf("build embed: %w", err)
	}
	msg, err := a.session.ChannelMessageSendEmbed(*event.ChannelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send embed: %w", err)
	}
	return msg.ID, nil
}

// RenderRoster re-renders the event's embed message in place. Events
// with no channel/message recorded are skipped.
func (a *Announcer) RenderRoster(ctx context.Context, eventID string) {
	event, err := a.store.GetEvent(ctx, eventID)
	if err != nil {
		a.log.Warn("render roster: fetch event failed", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	if event.ChannelID == nil || event.MessageID == nil {
		return
	}

	embed, err := a.BuildEmbed(ctx, event)
	if err != nil {
		a.log.Warn("render roster: build embed failed", zap.String("event_id", eventID), zap.Error(err))
		return
	}

	_, err = a.session.ChannelMessageEditEmbed(*event.ChannelID, *event.MessageID, embed,
		discordgo.WithContext(ctx))
	if err != nil {
		a.log.Warn("render roster: edit message failed",
			zap.String("event_id", eventID),
			zap.String("channel_id", *event.ChannelID),
			zap.Error(err))
	}
}

// Announce posts a line to the event's channel.
func (a *Announcer) Announce(ctx context.Context, eventID, message string) {
	event, err := a.store.GetEvent(ctx, eventID)
	if err != nil || event.ChannelID == nil {
		a.log.Warn("announce skipped", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	if _, err := a.session.ChannelMessageSend(*event.ChannelID, message, discordgo.WithContext(ctx)); err != nil {
		a.log.Warn("announce failed",
			zap.String("event_id", eventID),
			zap.String("channel_id", *event.ChannelID),
			zap.Error(err))
	}
}

// Notify DMs a user. Users with closed DMs just generate a log line.
func (a *Announcer) Notify(ctx context.Context, discordID, message string) {
	channel, err := a.session.UserChannelCreate(discordID, discordgo.WithContext(ctx))
	if err != nil {
		a.log.Warn("notify: open DM failed", zap.String("discord_id", discordID), zap.Error(err))
		return
	}
	if _, err := a.session.ChannelMessageSend(channel.ID, message, discordgo.WithContext(ctx)); err != nil {
		a.log.Warn("notify: send DM failed", zap.String("discord_id", discordID), zap.Error(err))
	}
}

// BuildEmbed assembles the public event display: header fields, the
// partaking list against capacity, the alternate queue, and in choose
// mode the player-formed teams.
func (a *Announcer) BuildEmbed(ctx context.Context, event *models.Event) (*discordgo.MessageEmbed, error) {
	participants, err := a.store.ListParticipants(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, p := range participants {
		ids = append(ids, p.DiscordID)
	}
	names, err := a.store.DisplayNames(ctx, ids)
	if err != nil {
		a.log.Warn("display names failed", zap.Error(err))
		names = map[string]string{}
	}
	display := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return fmt.Sprintf("<@%s>", id)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s (%s)", event.Name, event.Type),
		Description: event.Description,
		Color:       0x0099FF,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Event ID: " + event.ID},
	}

	unix := event.StartsAt.Unix()
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{
			Name:  "🗓️ Date & Time",
			Value: fmt.Sprintf("<t:%d:F> (<t:%d:R>)", unix, unix),
		},
		&discordgo.MessageEmbedField{Name: "Difficulty", Value: orDefault(event.Difficulty, "Not set"), Inline: true},
		&discordgo.MessageEmbedField{Name: "Modifiers", Value: orDefault(event.Modifier, "None"), Inline: true},
		&discordgo.MessageEmbedField{Name: "Status", Value: string(event.Status), Inline: true},
	)

	var partaking, alternates []string
	for _, p := range participants {
		switch p.Role {
		case models.RolePartaking:
			partaking = append(partaking, "✅ "+display(p.DiscordID))
		case models.RoleAlternate:
			symbol := "➕"
			if p.PriorityAlternate {
				symbol = "⭐"
			}
			alternates = append(alternates, symbol+" "+display(p.DiscordID))
		}
	}

	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Partaking (%d/%d)", len(partaking), event.Capacity),
			Value: orEmpty(partaking),
		},
		&discordgo.MessageEmbedField{Name: "Alternates", Value: orEmpty(alternates)},
	)

	if event.IsRaidRace() && event.TeamFormation != nil && *event.TeamFormation == models.FormationChoose {
		a.appendTeamFields(ctx, embed, event, participants, display)
	}

	return embed, nil
}

func (a *Announcer) appendTeamFields(ctx context.Context, embed *discordgo.MessageEmbed,
	event *models.Event, participants []models.Participant, display func(string) string) {

	teams, err := a.store.ListTeams(ctx, event.ID)
	if err != nil {
		a.log.Warn("list teams for embed failed", zap.String("event_id", event.ID), zap.Error(err))
		return
	}
	if len(teams) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "--- Player Formed Teams ---", Value: "_No teams created yet._",
		})
		return
	}

	members := make(map[string][]string)
	for _, p := range participants {
		if p.TeamID != nil {
			members[*p.TeamID] = append(members[*p.TeamID], "- "+display(p.DiscordID))
		}
	}

	size := event.Capacity
	if n, ok := event.TeamSize(); ok {
		size = n
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "--- Player Formed Teams ---", Value: "​",
	})
	for _, t := range teams {
		value := strings.Join(members[t.ID], "\n")
		if value == "" {
			value = "_No members yet._"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("🔰 %s (%d/%d)", t.Name, len(members[t.ID]), size),
			Value:  value,
			Inline: true,
		})
	}
}

func orDefault(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func orEmpty(lines []string) string {
	if len(lines) == 0 {
		return "Empty"
	}
	return strings.Join(lines, "\n")
}
