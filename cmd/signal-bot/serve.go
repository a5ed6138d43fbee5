package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"

	"trade-signal-bot/internal/signalbot/config"
	discorddelivery "trade-signal-bot/internal/signalbot/delivery/discord"
	delivery "trade-signal-bot/internal/signalbot/delivery/http"
	telegramdelivery "trade-signal-bot/internal/signalbot/delivery/telegram"
	_ "trade-signal-bot/internal/signalbot/docs"
	"trade-signal-bot/internal/signalbot/repository"
	"trade-signal-bot/internal/signalbot/service"
	"trade-signal-bot/pkg/discord"
	"trade-signal-bot/pkg/logger"
	"trade-signal-bot/pkg/telegram"
	"trade-signal-bot/pkg/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the signal bot",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting signal bot",
		logger.Field("name", cfg.App.Name),
		logger.StringField("version", version),
		logger.StringField("platform", cfg.Bot.Platform))

	repo, cleanup, err := openRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize repository", logger.ErrorField(err))
	}
	defer cleanup()

	var signalSvc service.SignalService
	switch cfg.Bot.Platform {
	case config.PlatformTelegram:
		signalSvc = startTelegram(ctx, cfg, repo, appLogger)
	case config.PlatformDiscord:
		var session *discordgo.Session
		signalSvc, session = startDiscord(ctx, cfg, repo, appLogger)
		defer session.Close()
	}

	if cfg.Reconcile.Enabled {
		reconciler := service.NewReconcileService(signalSvc, cfg.Reconcile.Cron, appLogger)
		utils.GoSafe(appLogger, func() {
			if err := reconciler.Start(ctx); err != nil {
				appLogger.Error("Reconcile scheduler failed", logger.ErrorField(err))
			}
		})
	}

	var e *echo.Echo
	if cfg.API.Enabled {
		e = startAPI(cfg, signalSvc, appLogger, stop)
	}

	// Wait for shutdown signal
	<-ctx.Done()
	appLogger.Info("Shutting down signal bot...")

	if e != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Server forced to shutdown", logger.ErrorField(err))
		}
	}

	appLogger.Info("Signal bot exiting")
}

func startTelegram(ctx context.Context, cfg *config.Config, repo repository.SignalRepository, appLogger *logger.Logger) service.SignalService {
	notifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChannelID, cfg.Telegram.ChannelUsername, cfg.RateLimit.MessagesPerMinute)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram client", logger.ErrorField(err))
	}
	if err := notifier.EnsureChannel(ctx); err != nil {
		appLogger.Fatal("Telegram channel is not usable", logger.ErrorField(err))
	}

	signalSvc := service.NewSignalService(repo, notifier, cfg.Bot, appLogger)

	handler := telegramdelivery.NewHandler(signalSvc, appLogger)
	b, err := handler.NewBot(cfg.Telegram.BotToken)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram bot", logger.ErrorField(err))
	}
	utils.GoSafe(appLogger, func() { b.Start(ctx) })

	appLogger.Info("Telegram bot started", logger.Field("channel_id", cfg.Telegram.ChannelID))
	return signalSvc
}

func startDiscord(ctx context.Context, cfg *config.Config, repo repository.SignalRepository, appLogger *logger.Logger) (service.SignalService, *discordgo.Session) {
	session, err := discord.NewSession(cfg.Discord.BotToken)
	if err != nil {
		appLogger.Fatal("Failed to initialize Discord session", logger.ErrorField(err))
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	if err := session.Open(); err != nil {
		appLogger.Fatal("Failed to connect to Discord", logger.ErrorField(err))
	}

	notifier := discord.NewClient(session, cfg.Discord.GuildID, cfg.Discord.ChannelID, cfg.Discord.WebhookName, cfg.RateLimit.MessagesPerMinute)
	if err := notifier.EnsureChannel(ctx); err != nil {
		appLogger.Fatal("Discord channel is not usable", logger.ErrorField(err))
	}

	signalSvc := service.NewSignalService(repo, notifier, cfg.Bot, appLogger)

	handler := discorddelivery.NewHandler(signalSvc, appLogger)
	if err := handler.Register(session, cfg.Discord.AppID, cfg.Discord.GuildID); err != nil {
		appLogger.Fatal("Failed to register Discord commands", logger.ErrorField(err))
	}

	appLogger.Info("Discord bot started", logger.StringField("channel_id", cfg.Discord.ChannelID))
	return signalSvc, session
}

func startAPI(cfg *config.Config, signalSvc service.SignalService, appLogger *logger.Logger, stop context.CancelFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	signalHandler := delivery.NewSignalHandler(signalSvc, appLogger)
	signalHandler.RegisterHealth(e)
	signalHandler.RegisterRoutes(e.Group("/api/v1"))

	e.GET("/swagger/*", swagger.WrapHandler)

	utils.GoSafe(appLogger, func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	})
	return e
}
