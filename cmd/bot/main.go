package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	cardtaskroot "github.com/set-night/cardtask"
	"github.com/set-night/cardtask/internal/admin"
	"github.com/set-night/cardtask/internal/config"
	"github.com/set-night/cardtask/internal/engine"
	"github.com/set-night/cardtask/internal/handler"
	"github.com/set-night/cardtask/internal/middleware"
	"github.com/set-night/cardtask/internal/repository"
	"github.com/set-night/cardtask/internal/service"
	"github.com/set-night/cardtask/internal/session"
	"github.com/set-night/cardtask/internal/telegram"
	"github.com/set-night/cardtask/web"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(cardtaskroot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	queries := repository.New(pool)
	sessions := session.New()

	// Create bot
	var notifier *telegram.Notifier
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(func(err error, context string) {
				if notifier != nil {
					notifier.NotifyError(err, context)
				}
			}),
			middleware.Logging(),
			middleware.TrackUsers(queries),
		),
	}

	var h *handler.Handler
	opts = append(opts, bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if h != nil {
			h.HandleMessage(ctx, b, update)
		}
	}))

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("drop pending updates", "error", err)
		}
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	sender := telegram.NewSender(b)
	notifier = telegram.NewNotifier(b, cfg)
	renderer := engine.NewRenderer(sender, sessions)
	eng := engine.New(sessions, renderer, queries, queries, notifier, cfg)

	h = handler.New(handler.Deps{
		Bot:      b,
		Cfg:      cfg,
		Engine:   eng,
		Notifier: notifier,
	})
	h.Register()

	dialogService := service.NewDialogService(queries, queries, sender)
	broadcaster := service.NewBroadcaster(queries, sender)
	console := admin.NewServer(cfg, queries, dialogService, broadcaster, telegram.NewFileProxy(b), web.Static())

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           console.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting bot", "username", me.Username, "id", me.ID)
		b.Start(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("starting operator console", "addr", cfg.APIAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	slog.Info("stopped gracefully")
}
