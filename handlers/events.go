package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/clanops/eventbot/models"
	"github.com/clanops/eventbot/store"
)

// minLeadTime is how far in the future a new or rescheduled event must
// start.
const minLeadTime = 5 * time.Minute

type createEventRequest struct {
	Type           string    `json:"type"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	StartsAt       time.Time `json:"startsAt"`
	Capacity       int       `json:"capacity"`
	Difficulty     *string   `json:"difficulty"`
	Modifier       *string   `json:"modifier"`
	AutoJoin       *bool     `json:"autoJoin"`
	TeamFormation  *string   `json:"teamFormation"`
	PlayersPerTeam *int      `json:"playersPerTeam"`
	ChannelID      *string   `json:"channelID"`
}

// eventPublisher is implemented by presenters that can post the initial
// event display and hand back its message id.
type eventPublisher interface {
	PublishEvent(ctx context.Context, event *models.Event) (string, error)
}

var eventTypes = map[string]models.EventType{
	string(models.EventRaid):     models.EventRaid,
	string(models.EventDungeon):  models.EventDungeon,
	string(models.EventRaidRace): models.EventRaidRace,
	string(models.EventCustom):   models.EventCustom,
}

func defaultCapacity(t models.EventType) int {
	switch t {
	case models.EventRaid, models.EventRaidRace:
		return 6
	case models.EventDungeon:
		return 3
	default:
		return 10
	}
}

// CreateEvent makes a new upcoming event, optionally signing the creator
// up for it.
func (h *Handler) CreateEvent(c echo.Context) error {
	discordID, admin := actor(c)

	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	eventType, ok := eventTypes[strings.TrimSpace(req.Type)]
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "type must be one of Raid, Dungeon, Raid Race, Custom")
	}
	// Race events gather competing teams; only admins set those up.
	if eventType == models.EventRaidRace && !admin {
		return echo.NewHTTPError(http.StatusForbidden, "you do not have permission to create this type of event")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "description is required")
	}
	if req.StartsAt.Before(time.Now().Add(minLeadTime)) {
		return echo.NewHTTPError(http.StatusBadRequest, "event must start at least 5 minutes from now")
	}

	capacity := req.Capacity
	if capacity == 0 {
		capacity = defaultCapacity(eventType)
	}
	if capacity < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "capacity must be a positive integer")
	}

	event := &models.Event{
		CreatorID:   discordID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Type:        eventType,
		Difficulty:  req.Difficulty,
		Modifier:    req.Modifier,
		StartsAt:    req.StartsAt.UTC(),
		Capacity:    capacity,
		ChannelID:   req.ChannelID,
	}

	if eventType == models.EventRaidRace {
		if req.TeamFormation != nil {
			formation := models.TeamFormation(strings.ToLower(*req.TeamFormation))
			if formation != models.FormationRandom && formation != models.FormationChoose {
				return echo.NewHTTPError(http.StatusBadRequest, "teamFormation must be random or choose")
			}
			event.TeamFormation = &formation
		}
		if req.PlayersPerTeam != nil {
			if *req.PlayersPerTeam <= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "playersPerTeam must be a positive integer")
			}
			event.PlayersPerTeam = req.PlayersPerTeam
		}
	}

	ctx := c.Request().Context()
	event, err := h.store.CreateEvent(ctx, event)
	if err != nil {
		zap.L().Error("create event failed", zap.Error(err))
		return httpError(err)
	}

	if pub, ok := h.presenter.(eventPublisher); ok && event.ChannelID != nil {
		if messageID, err := pub.PublishEvent(ctx, event); err == nil {
			event.MessageID = &messageID
			if err := h.store.UpdateEvent(ctx, event); err != nil {
				zap.L().Warn("save message id failed", zap.String("event_id", event.ID), zap.Error(err))
			}
		} else {
			zap.L().Warn("publish event failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}

	if req.AutoJoin == nil || *req.AutoJoin {
		if _, err := h.roster.Join(ctx, event.ID, discordID, models.RolePartaking); err != nil {
			zap.L().Warn("creator auto-join failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}

	return c.JSON(http.StatusCreated, event)
}

type editEventRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	StartsAt    *time.Time `json:"startsAt"`
	Capacity    *int       `json:"capacity"`
	Difficulty  *string    `json:"difficulty"`
	Modifier    *string    `json:"modifier"`
	Status      *string    `json:"status"`
}

var eventStatuses = map[string]models.EventStatus{
	string(models.StatusUpcoming):  models.StatusUpcoming,
	string(models.StatusActive):    models.StatusActive,
	string(models.StatusCompleted): models.StatusCompleted,
	string(models.StatusCancelled): models.StatusCancelled,
}

// EditEvent applies partial updates and notifies everyone signed up.
func (h *Handler) EditEvent(c echo.Context) error {
	discordID, admin := actor(c)
	eventID := c.Param("id")
	ctx := c.Request().Context()

	event, err := h.store.GetEvent(ctx, eventID)
	if err != nil {
		return httpError(err)
	}
	if !admin && event.CreatorID != discordID {
		return echo.NewHTTPError(http.StatusForbidden, "you do not have permission to edit this event")
	}

	var req editEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var changed []string
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		event.Name = strings.TrimSpace(*req.Name)
		changed = append(changed, "Name: "+event.Name)
	}
	if req.Description != nil {
		event.Description = *req.Description
		changed = append(changed, "Description updated")
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "capacity must be a positive integer")
		}
		event.Capacity = *req.Capacity
		changed = append(changed, fmt.Sprintf("Max participants: %d", event.Capacity))
	}
	if req.Difficulty != nil {
		event.Difficulty = req.Difficulty
		changed = append(changed, "Difficulty: "+*req.Difficulty)
	}
	if req.Modifier != nil {
		event.Modifier = req.Modifier
		changed = append(changed, "Modifiers: "+*req.Modifier)
	}
	if req.Status != nil {
		status, ok := eventStatuses[strings.ToLower(*req.Status)]
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "status must be one of upcoming, active, completed, cancelled")
		}
		event.Status = status
		changed = append(changed, "Status: "+string(status))
	}
	if req.StartsAt != nil {
		closing := event.Status == models.StatusCompleted || event.Status == models.StatusCancelled
		if !closing && req.StartsAt.Before(time.Now()) {
			return echo.NewHTTPError(http.StatusBadRequest, "new event time must be in the future")
		}
		event.StartsAt = req.StartsAt.UTC()
		changed = append(changed, fmt.Sprintf("Time: <t:%d:F>", event.StartsAt.Unix()))
	}

	if len(changed) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no changes were specified")
	}

	if err := h.store.UpdateEvent(ctx, event); err != nil {
		zap.L().Error("edit event failed", zap.String("event_id", eventID), zap.Error(err))
		return httpError(err)
	}

	h.notifyParticipants(ctx, eventID, discordID,
		fmt.Sprintf("The event %q (ID: %s) you signed up for has been updated.\nChanges:\n- %s",
			event.Name, event.ID, strings.Join(changed, "\n- ")))
	h.presenter.RenderRoster(ctx, eventID)

	return c.JSON(http.StatusOK, event)
}

type deleteEventRequest struct {
	Reason string `json:"reason"`
}

// DeleteEvent removes an event and all of its signups and teams, letting
// everyone signed up know.
func (h *Handler) DeleteEvent(c echo.Context) error {
	discordID, admin := actor(c)
	eventID := c.Param("id")
	ctx := c.Request().Context()

	event, err := h.store.GetEvent(ctx, eventID)
	if err != nil {
		return httpError(err)
	}
	if !admin && event.CreatorID != discordID {
		return echo.NewHTTPError(http.StatusForbidden, "you do not have permission to delete this event")
	}

	var req deleteEventRequest
	_ = c.Bind(&req)

	// Fetch the roster before the cascade wipes it.
	participants, err := h.store.ListParticipants(ctx, eventID)
	if err != nil {
		zap.L().Warn("list participants before delete failed", zap.String("event_id", eventID), zap.Error(err))
	}

	if err := h.store.DeleteEvent(ctx, eventID); err != nil {
		zap.L().Error("delete event failed", zap.String("event_id", eventID), zap.Error(err))
		return httpError(err)
	}

	message := fmt.Sprintf("The event %q (ID: %s) you signed up for has been cancelled.", event.Name, event.ID)
	if strings.TrimSpace(req.Reason) != "" {
		message += "\nReason: " + strings.TrimSpace(req.Reason)
	}
	for _, p := range participants {
		if p.DiscordID != discordID {
			h.presenter.Notify(ctx, p.DiscordID, message)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Event %q and its sign-ups have been deleted.", event.Name),
	})
}

type eventListRow struct {
	EventID  string             `json:"eventID"`
	Name     string             `json:"name"`
	Type     models.EventType   `json:"type"`
	StartsAt time.Time          `json:"startsAt"`
	Status   models.EventStatus `json:"status"`
	Signups  int                `json:"signups"`
	Capacity int                `json:"capacity"`
}

// ListEvents returns up to ten events for the requested filter.
func (h *Handler) ListEvents(c echo.Context) error {
	discordID, _ := actor(c)
	ctx := c.Request().Context()

	filter := store.EventFilter(c.QueryParam("filter"))
	if filter == "" {
		filter = store.FilterUpcoming
	}
	eventType := models.EventType(c.QueryParam("type"))

	events, err := h.store.ListEvents(ctx, filter, eventType, discordID)
	if err != nil {
		zap.L().Error("list events failed", zap.Error(err))
		return httpError(err)
	}

	rows := make([]eventListRow, len(events))
	for i, event := range events {
		count, err := h.store.SignupCount(ctx, event.ID)
		if err != nil {
			zap.L().Warn("signup count failed", zap.String("event_id", event.ID), zap.Error(err))
		}
		rows[i] = eventListRow{
			EventID:  event.ID,
			Name:     event.Name,
			Type:     event.Type,
			StartsAt: event.StartsAt,
			Status:   event.Status,
			Signups:  count,
			Capacity: event.Capacity,
		}
	}

	return c.JSON(http.StatusOK, rows)
}

type eventInfo struct {
	Event        *models.Event        `json:"event"`
	Partaking    []models.Participant `json:"partaking"`
	Alternates   []models.Participant `json:"alternates"`
	Teams        []models.Team        `json:"teams,omitempty"`
	DisplayNames map[string]string    `json:"displayNames"`
}

// EventInfo returns the full roster view of one event.
func (h *Handler) EventInfo(c echo.Context) error {
	eventID := c.Param("id")
	ctx := c.Request().Context()

	event, err := h.store.GetEvent(ctx, eventID)
	if err != nil {
		return httpError(err)
	}

	participants, err := h.store.ListParticipants(ctx, eventID)
	if err != nil {
		zap.L().Error("list participants failed", zap.String("event_id", eventID), zap.Error(err))
		return httpError(err)
	}

	info := &eventInfo{Event: event}
	var ids []string
	for _, p := range participants {
		ids = append(ids, p.DiscordID)
		if p.Role == models.RolePartaking {
			info.Partaking = append(info.Partaking, p)
		} else {
			info.Alternates = append(info.Alternates, p)
		}
	}

	if event.IsRaidRace() {
		teams, err := h.store.ListTeams(ctx, eventID)
		if err != nil {
			zap.L().Warn("list teams failed", zap.String("event_id", eventID), zap.Error(err))
		}
		info.Teams = teams
	}

	names, err := h.store.DisplayNames(ctx, ids)
	if err != nil {
		zap.L().Warn("display names failed", zap.Error(err))
		names = map[string]string{}
	}
	info.DisplayNames = names

	return c.JSON(http.StatusOK, info)
}

// notifyParticipants DMs everyone on the roster except the acting user.
func (h *Handler) notifyParticipants(ctx context.Context, eventID, actorID, message string) {
	participants, err := h.store.ListParticipants(ctx, eventID)
	if err != nil {
		zap.L().Warn("list participants for notification failed", zap.String("event_id", eventID), zap.Error(err))
		return
	}
	for _, p := range participants {
		if p.DiscordID != actorID {
			h.presenter.Notify(ctx, p.DiscordID, message)
		}
	}
}
