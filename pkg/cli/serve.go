package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cybershield/notifier/pkg/api"
	"github.com/cybershield/notifier/pkg/config"
	"github.com/cybershield/notifier/pkg/mail"
	"github.com/cybershield/notifier/pkg/notification"
	"github.com/cybershield/notifier/pkg/system"
	"github.com/cybershield/notifier/pkg/telemetry"
	"github.com/cybershield/notifier/pkg/version"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the notification HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			cfg, err := rt.LoadConfig()
			if err != nil {
				return err
			}
			debug := rt.debug || cfg.Server.Debug

			zl, err := system.NewLogger(debug)
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, cfg, zl, debug)
		},
	}
}

// Serve wires the mail transport, the notification service and the HTTP server
// from cfg and blocks until ctx is cancelled.
func Serve(ctx context.Context, cfg config.Config, zl *zap.Logger, debug bool) error {
	log := zl.Sugar()
	log.Infow("Starting notification service", "version", version.Version, "provider", cfg.Mail.Provider)

	if debug {
		log.Debugw("Loaded configuration", "config", cfg.Redacted())
	}
	if cfg.Mail.Provider == config.ProviderSMTP && cfg.Mail.Password == "" && !cfg.Mail.SuppressSend {
		log.Warnw("MAIL_PASSWORD is not set, SMTP authentication will fail unless the relay accepts anonymous mail",
			"server", cfg.Mail.Server, "port", cfg.Mail.Port)
	}

	_, shutdownTracing, err := telemetry.Init(ctx, telemetry.OptionsFromConfig(cfg.Telemetry, log))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warnw("Failed to flush traces", "error", err)
		}
	}()

	sender, err := mail.NewSender(cfg.Mail, log)
	if err != nil {
		return fmt.Errorf("creating mail sender: %w", err)
	}
	svc := notification.NewService(mail.DefaultRegistry(), sender, notification.ServiceOptions{
		From:     cfg.Mail.DefaultSender,
		FromName: cfg.Mail.SenderName,
		Logger:   log,
	})

	server := api.NewServer(zl, cfg, debug)
	err = server.RegisterAll([]api.APIController{
		notification.NewController(log, svc, cfg.Server.StrictJSON),
		notification.NewHealthController(log, notification.NewHealthChecker(sender, log)),
	})
	if err != nil {
		return fmt.Errorf("registering controllers: %w", err)
	}

	return server.Listen(ctx)
}
