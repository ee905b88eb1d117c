package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/rps-bot/internal/commands"
	"github.com/DoyleJ11/rps-bot/internal/config"
	"github.com/DoyleJ11/rps-bot/internal/discord"
	"github.com/DoyleJ11/rps-bot/internal/gateway"
	"github.com/DoyleJ11/rps-bot/internal/httpapi"
	"github.com/DoyleJ11/rps-bot/internal/hub"
	"github.com/DoyleJ11/rps-bot/internal/interactions"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the Discord interactions endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) (err error) {
	publicKey, err := cfg.Ed25519PublicKey()
	if err != nil {
		return err
	}
	session, err := discord.NewSession(cfg.BotToken)
	if err != nil {
		return err
	}

	h := hub.NewHub(context.Background(), hub.WithTTL(cfg.SessionTTL), hub.WithSweepInterval(cfg.SweepInterval))
	defer h.Shutdown()

	// Build the router *with* the hub injected
	router := interactions.NewRouter(h, discord.NewClient(session, cfg.AppID), log, interactions.Config{
		AppID:             cfg.AppID,
		InvitePermissions: cfg.InvitePermissions,
		FollowUpTimeout:   cfg.FollowUpTimeout,
	})
	defer router.Wait()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      httpapi.SetupRoutes(httpapi.Deps{Interactions: router, PublicKey: publicKey, Log: log}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.GatewayEnabled {
		session.Identify.Intents = gateway.Intents
		session.AddHandler(gateway.NewPingResponder(log).Handler())
		if err := session.Open(); err != nil {
			return fmt.Errorf("open gateway: %w", err)
		}
		defer func() { err = multierr.Append(err, session.Close()) }()
		log.Info("gateway connected")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.RegisterCommands {
		g.Go(func() error {
			// A registration failure leaves the previous command set in place; keep serving.
			created, err := commands.Register(gctx, session, cfg.AppID, cfg.GuildID)
			if err != nil {
				log.Error("register commands", zap.Error(err))
				return nil
			}
			log.Info("commands registered", zap.Int("count", len(created)), zap.String("guild_id", cfg.GuildID))
			return nil
		})
	}

	return g.Wait()
}
