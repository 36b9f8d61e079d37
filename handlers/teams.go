package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AssignTeams shuffles the partaking roster into teams of the event's
// configured size. Only the event creator or an admin may trigger it, and
// running it again simply deals a fresh set of teams.
func (h *Handler) AssignTeams(c echo.Context) error {
	discordID, admin := actor(c)
	eventID := c.Param("id")
	ctx := c.Request().Context()

	event, err := h.store.GetEvent(ctx, eventID)
	if err != nil {
		return httpError(err)
	}
	if !admin && event.CreatorID != discordID {
		return echo.NewHTTPError(http.StatusForbidden, "you do not have permission to assign teams for this event")
	}

	result, err := h.roster.AssignRandomTeams(ctx, eventID)
	if err != nil {
		zap.L().Error("assign teams failed", zap.String("event_id", eventID), zap.Error(err))
		return httpError(err)
	}

	teams := make([]map[string]any, len(result.Teams))
	for i, t := range result.Teams {
		teams[i] = map[string]any{
			"name":       t.Team.Name,
			"members":    t.Members,
			"undersized": t.Undersized,
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"teams":               teams,
		"promoted":            result.Promoted,
		"remainingAlternates": result.RemainingAlternates,
	})
}

type createTeamRequest struct {
	Name string `json:"name"`
}

// CreateTeam starts a new team in a choose-mode race and puts the caller
// on it.
func (h *Handler) CreateTeam(c echo.Context) error {
	discordID, _ := actor(c)
	eventID := c.Param("id")

	var req createTeamRequest
	_ = c.Bind(&req)

	team, err := h.roster.CreateTeam(c.Request().Context(), eventID, discordID, req.Name)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Team %q created. You're its first member.", team.Name),
		"teamID":  team.ID,
		"name":    team.Name,
	})
}

type joinTeamRequest struct {
	Name string `json:"name"`
}

// JoinTeam adds the caller to an existing team by name.
func (h *Handler) JoinTeam(c echo.Context) error {
	discordID, _ := actor(c)
	eventID := c.Param("id")

	var req joinTeamRequest
	_ = c.Bind(&req)

	team, err := h.roster.JoinTeam(c.Request().Context(), eventID, discordID, req.Name)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("You've joined team %q.", team.Name),
		"teamID":  team.ID,
		"name":    team.Name,
	})
}

// LeaveTeam removes the caller from their team; an emptied team is
// disbanded.
func (h *Handler) LeaveTeam(c echo.Context) error {
	discordID, _ := actor(c)
	eventID := c.Param("id")

	result, err := h.roster.LeaveTeam(c.Request().Context(), eventID, discordID)
	if err != nil {
		return httpError(err)
	}

	message := fmt.Sprintf("You've left team %q.", result.TeamName)
	if result.Disbanded {
		message = fmt.Sprintf("You've left team %q. It had no members remaining and has been disbanded.", result.TeamName)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":   message,
		"disbanded": result.Disbanded,
	})
}
