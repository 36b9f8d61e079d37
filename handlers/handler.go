package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clanops/eventbot/bungie"
	"github.com/clanops/eventbot/roster"
	"github.com/clanops/eventbot/store"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	store     *store.Store
	roster    *roster.Service
	presenter roster.Presenter
	bungie    *bungie.Client // nil when linking is not configured
	JWTKey    []byte
}

// New creates a Handler with the given collaborators.
func New(st *store.Store, svc *roster.Service, presenter roster.Presenter, bungieClient *bungie.Client, jwtKey []byte) *Handler {
	return &Handler{
		store:     st,
		roster:    svc,
		presenter: presenter,
		bungie:    bungieClient,
		JWTKey:    jwtKey,
	}
}

// httpError maps roster validation failures onto HTTP statuses; anything
// unrecognized is a storage-level failure and comes back as a 500 with a
// generic message.
func httpError(err error) error {
	switch {
	case errors.Is(err, roster.ErrEventNotFound),
		errors.Is(err, roster.ErrTeamNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, roster.ErrNameTaken),
		errors.Is(err, roster.ErrTeamFull),
		errors.Is(err, roster.ErrAlreadyOnTeam):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, roster.ErrEventNotJoinable),
		errors.Is(err, roster.ErrNotSignedUp),
		errors.Is(err, roster.ErrInvalidTeamOperation),
		errors.Is(err, roster.ErrWrongMode),
		errors.Is(err, roster.ErrNotUpcoming),
		errors.Is(err, roster.ErrNotPartaking),
		errors.Is(err, roster.ErrNotOnTeam),
		errors.Is(err, roster.ErrNotEnoughPlayers):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "something went wrong, please try again")
	}
}

// actor pulls the authenticated identity out of the request context.
func actor(c echo.Context) (discordID string, admin bool) {
	discordID, _ = c.Get("discord_id").(string)
	admin, _ = c.Get("admin").(bool)
	return discordID, admin
}
