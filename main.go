package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/clanops/eventbot/bungie"
	"github.com/clanops/eventbot/config"
	"github.com/clanops/eventbot/db"
	"github.com/clanops/eventbot/discord"
	"github.com/clanops/eventbot/handlers"
	applog "github.com/clanops/eventbot/logger"
	mw "github.com/clanops/eventbot/middleware"
	"github.com/clanops/eventbot/reminder"
	"github.com/clanops/eventbot/roster"
	"github.com/clanops/eventbot/store"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	st := store.New(bdb)

	var presenter roster.Presenter
	if cfg.DiscordToken != "" {
		announcer, err := discord.NewAnnouncer(cfg.DiscordToken, st, logger)
		if err != nil {
			logger.Fatal("discord session failed", zap.Error(err))
		}
		presenter = announcer
	} else {
		logger.Info("no discord token set, roster output goes to logs only")
		presenter = discord.NewLogPresenter(logger)
	}

	var bungieClient *bungie.Client
	if cfg.BungieAPIKey != "" {
		bungieClient = bungie.New(cfg.BungieAPIKey)
	} else {
		logger.Info("no bungie api key set, account linking disabled")
	}

	svc := roster.NewService(st, presenter, logger)

	scanner := reminder.New(st, presenter, logger, cfg.ReminderInterval, cfg.ReminderWindow)
	scanner.Start(context.Background())
	defer scanner.Stop()

	h := handlers.New(st, svc, presenter, bungieClient, cfg.JWTKey())

	e := echo.New()
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"*", "Authorization"},
		AllowCredentials: true,
	}))

	// Public
	e.POST("/api/signin", h.Signin)

	// Protected – require valid JWT in Authorization header
	api := e.Group("/api", mw.JWT(cfg.JWTKey()))
	api.GET("/events", h.ListEvents)
	api.POST("/events", h.CreateEvent)
	api.GET("/events/:id", h.EventInfo)
	api.PUT("/events/:id", h.EditEvent)
	api.DELETE("/events/:id", h.DeleteEvent)
	api.POST("/events/:id/join", h.JoinEvent)
	api.POST("/events/:id/withdraw", h.WithdrawEvent)
	api.POST("/events/:id/teams/assign", h.AssignTeams)
	api.POST("/events/:id/teams", h.CreateTeam)
	api.POST("/events/:id/teams/join", h.JoinTeam)
	api.POST("/events/:id/teams/leave", h.LeaveTeam)
	api.POST("/link", h.LinkBungie)

	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}
