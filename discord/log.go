package discord

import (
	"context"

	"go.uber.org/zap"
)

// LogPresenter stands in when no bot token is configured: every render,
// announcement and notification becomes a log line. Useful for local
// development against a bare database.
type LogPresenter struct {
	log *zap.Logger
}

// NewLogPresenter wraps a logger as a presenter.
func NewLogPresenter(log *zap.Logger) *LogPresenter {
	return &LogPresenter{log: log}
}

func (p *LogPresenter) RenderRoster(_ context.Context, eventID string) {
	p.log.Debug("roster render", zap.String("event_id", eventID))
}

func (p *LogPresenter) Announce(_ context.Context, eventID, message string) {
	p.log.Info("announce", zap.String("event_id", eventID), zap.String("message", message))
}

func (p *LogPresenter) Notify(_ context.Context, discordID, message string) {
	p.log.Info("notify", zap.String("discord_id", discordID), zap.String("message", message))
}
