// Package reminder runs the periodic sweep that warns partaking members
// shortly before their event starts. Each event is reminded at most
// once: the reminder flag is monotonic and set whether or not anyone was
// signed up when the window opened.
package reminder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/clanops/eventbot/models"
)

// Store is the slice of persistence the scanner needs.
type Store interface {
	ListEventsNeedingReminder(ctx context.Context, start, end time.Time) ([]models.Event, error)
	ListPartaking(ctx context.Context, eventID string) ([]models.Participant, error)
	MarkReminderSent(ctx context.Context, eventID string) error
}

// Notifier delivers best-effort direct messages.
type Notifier interface {
	Notify(ctx context.Context, discordID, message string)
}

// Scanner owns the recurring reminder sweep. Create with New, then
// Start; Stop blocks until the running sweep finishes.
type Scanner struct {
	store    Store
	notifier Notifier
	log      *zap.Logger
	interval time.Duration
	window   time.Duration

	stop chan struct{}
	done chan struct{}
}

// New builds a Scanner sweeping every interval for events starting
// within window.
func New(store Store, notifier Notifier, log *zap.Logger, interval, window time.Duration) *Scanner {
	return &Scanner{
		store:    store,
		notifier: notifier,
		log:      log,
		interval: interval,
		window:   window,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (s *Scanner) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.log.Info("reminder scanner started",
			zap.Duration("interval", s.interval),
			zap.Duration("window", s.window))

		for {
			select {
			case <-ticker.C:
				s.Scan(ctx, time.Now().UTC())
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop shuts the loop down and waits for it to exit.
func (s *Scanner) Stop() {
	close(s.stop)
	<-s.done
}

// Scan runs a single sweep at the given instant. A failure on one event
// or one recipient never aborts the rest of the sweep.
func (s *Scanner) Scan(ctx context.Context, now time.Time) {
	events, err := s.store.ListEventsNeedingReminder(ctx, now, now.Add(s.window))
	if err != nil {
		s.log.Error("reminder sweep: list events failed", zap.Error(err))
		return
	}

	for _, event := range events {
		s.remind(ctx, event)
	}
}

func (s *Scanner) remind(ctx context.Context, event models.Event) {
	participants, err := s.store.ListPartaking(ctx, event.ID)
	if err != nil {
		s.log.Error("reminder sweep: list partaking failed",
			zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	message := fmt.Sprintf("You're set to synchronise orbit for **%q** <t:%d:R>!",
		event.Name, event.StartsAt.Unix())
	if event.ChannelID != nil {
		message += fmt.Sprintf("\n\nJoin the discussion: <#%s>", *event.ChannelID)
	}

	for _, p := range participants {
		// Notifier implementations swallow and log delivery failures.
		s.notifier.Notify(ctx, p.DiscordID, message)
	}

	// Marked even with an empty roster so the event is never rescanned.
	if err := s.store.MarkReminderSent(ctx, event.ID); err != nil {
		s.log.Error("reminder sweep: mark sent failed",
			zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	s.log.Info("reminders sent",
		zap.String("event_id", event.ID),
		zap.String("event_name", event.Name),
		zap.Int("recipients", len(participants)))
}
