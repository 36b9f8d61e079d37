package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clanops/eventbot/models"
	"github.com/clanops/eventbot/roster"
)

type joinRequest struct {
	Role string `json:"role"`
}

// JoinEvent signs the caller up for the event, partaking by default.
func (h *Handler) JoinEvent(c echo.Context) error {
	discordID, _ := actor(c)
	eventID := c.Param("id")

	var req joinRequest
	_ = c.Bind(&req)

	role := models.RolePartaking
	switch req.Role {
	case "", string(models.RolePartaking):
	case string(models.RoleAlternate):
		role = models.RoleAlternate
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "role must be partaking or alternate")
	}

	result, err := h.roster.Join(c.Request().Context(), eventID, discordID, role)
	if err != nil {
		return httpError(err)
	}

	var message string
	switch result.Outcome {
	case roster.JoinedPartaking:
		message = fmt.Sprintf("You're signed up for %q. See you there, Guardian.", result.Event.Name)
	case roster.JoinedPriorityAlternate:
		message = fmt.Sprintf("%q is full, so you've been added as a priority alternate. You'll be first in line if a spot opens up.", result.Event.Name)
	case roster.JoinedAlternate:
		message = fmt.Sprintf("You're on the alternate list for %q.", result.Event.Name)
	case roster.AlreadySignedUp:
		message = fmt.Sprintf("You're already signed up for %q.", result.Event.Name)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": message,
		"outcome": result.Outcome,
	})
}

// WithdrawEvent removes the caller's signup, promoting an alternate if a
// capacity slot opened up.
func (h *Handler) WithdrawEvent(c echo.Context) error {
	discordID, _ := actor(c)
	eventID := c.Param("id")

	result, err := h.roster.Withdraw(c.Request().Context(), eventID, discordID)
	if err != nil {
		return httpError(err)
	}

	resp := map[string]any{
		"message": fmt.Sprintf("You've withdrawn from %q.", result.Event.Name),
	}
	if result.Promoted != nil {
		resp["promoted"] = result.Promoted.DiscordID
	}
	return c.JSON(http.StatusOK, resp)
}
