package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/clanops/eventbot/bungie"
	"github.com/clanops/eventbot/models"
)

type linkRequest struct {
	BungieName string `json:"bungieName"`
}

// LinkBungie resolves the caller's "Name#1234" Bungie name and stores the
// linked account on their member record.
func (h *Handler) LinkBungie(c echo.Context) error {
	if h.bungie == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "bungie account linking is not configured")
	}

	discordID, _ := actor(c)

	var req linkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.bungie.Search(c.Request().Context(), req.BungieName)
	switch {
	case errors.Is(err, bungie.ErrBadName):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, bungie.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case err != nil:
		zap.L().Error("bungie search failed", zap.String("discord_id", discordID), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "could not reach bungie, please try again")
	}

	member := &models.Member{
		DiscordID:          discordID,
		BungieName:         &profile.DisplayName,
		BungieCode:         &profile.DisplayNameCode,
		BungieMembershipID: &profile.MembershipID,
		BungiePlatform:     &profile.MembershipType,
	}
	if err := h.store.UpsertMember(c.Request().Context(), member); err != nil {
		zap.L().Error("save member failed", zap.String("discord_id", discordID), zap.Error(err))
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Linked Bungie account %s#%04d.", profile.DisplayName, profile.DisplayNameCode),
	})
}
