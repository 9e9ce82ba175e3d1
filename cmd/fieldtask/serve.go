package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/fieldtask/internal/activity"
	"github.com/dropDatabas3/fieldtask/internal/cache"
	memorycache "github.com/dropDatabas3/fieldtask/internal/cache/memory"
	rediscache "github.com/dropDatabas3/fieldtask/internal/cache/redis"
	"github.com/dropDatabas3/fieldtask/internal/challenge"
	"github.com/dropDatabas3/fieldtask/internal/config"
	"github.com/dropDatabas3/fieldtask/internal/guard"
	fieldhttp "github.com/dropDatabas3/fieldtask/internal/http"
	"github.com/dropDatabas3/fieldtask/internal/http/controllers"
	"github.com/dropDatabas3/fieldtask/internal/idp"
	"github.com/dropDatabas3/fieldtask/internal/notify"
	"github.com/dropDatabas3/fieldtask/internal/observability/logger"
	"github.com/dropDatabas3/fieldtask/internal/session"
	"github.com/dropDatabas3/fieldtask/internal/session/mirror"
	"github.com/dropDatabas3/fieldtask/internal/tasks"
	"github.com/dropDatabas3/fieldtask/internal/team"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el server del tablero",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("cargando configuración: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "fieldtask",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L().With(logger.Component("serve"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Paso 1: cache de atributos (memoria local o redis compartido)
	var attrs cache.Client
	switch cfg.Cache.Kind {
	case "redis":
		attrs, err = rediscache.New(ctx, rediscache.Config{
			Addr:   cfg.Cache.Redis.Addr,
			DB:     cfg.Cache.Redis.DB,
			Prefix: cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			return fmt.Errorf("conectando redis: %w", err)
		}
	default:
		attrs = memorycache.New(cfg.MemoryCacheTTL())
	}
	defer func() { _ = attrs.Close() }()

	// Paso 2: provider y session store
	provider := idp.New(idp.Config{
		BaseURL:    cfg.Provider.BaseURL,
		ClientID:   cfg.Provider.ClientID,
		HandlePath: cfg.HandlePath(),
		HTTP:       &http.Client{Timeout: cfg.ProviderTimeout()},
		Attrs:      attrs,
		AttrTTL:    cfg.AttrCacheTTL(),
	})
	sessions := session.New(session.Deps{
		Provider:   provider,
		Challenges: challenge.NewHolder(),
		Mirror:     mirror.New(cfg.MirrorPath()),
	})

	// Paso 3: restore al arrancar. El hint del mirror solo informa; la
	// sesión real sale del provider.
	if u, ok := sessions.MirrorHint(); ok {
		log.Info("sesión previa detectada", logger.Email(u.Email))
	}
	if sessions.Restore(ctx) {
		v := sessions.View()
		log.Info("sesión restaurada", logger.UserID(v.User.ID), logger.Role(v.User.Role.String()))
	}

	// Paso 4: stores del tablero y worker de recordatorios
	taskStore := tasks.New()
	teamStore := team.New()
	notifyStore := notify.New(24 * time.Hour)
	feed := activity.New(0)

	reminder := notify.NewReminder(notifyStore, taskStore, 24*time.Hour, 5*time.Minute)
	go reminder.Run(logger.ToContext(ctx, log))

	// Paso 5: HTTP
	ctrl := controllers.New(controllers.Deps{
		Sessions:      sessions,
		Tasks:         taskStore,
		Team:          teamStore,
		Notifications: notifyStore,
		Activity:      feed,
	})
	g := guard.New(sessions, cfg.Server.LoginPath, cfg.Server.HomePath)
	handler := fieldhttp.NewRouter(fieldhttp.RouterDeps{Controllers: ctrl, Guard: g})

	log.Info("fieldtask escuchando",
		logger.Addr(cfg.Server.Addr),
		logger.Provider(cfg.Provider.BaseURL),
	)
	return fieldhttp.Start(ctx, cfg.Server.Addr, handler)
}
