package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"github.com/saransh1220/notification-sync/internal/modules/notification/infrastructure/httpapi"
	"github.com/saransh1220/notification-sync/internal/modules/notification/infrastructure/websocket"
	"github.com/saransh1220/notification-sync/internal/shared/infrastructure/config"
	"github.com/saransh1220/notification-sync/internal/shared/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type queryClient interface {
	domain.QueryAPI
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Create(ctx context.Context, req httpapi.CreateRequest) (*domain.Notification, error)
}

type pushStream interface {
	domain.PushTransport
	Close() error
}

// app carries the resolved settings and the collaborator constructors the
// commands share. Tests swap the constructors for fakes.
type app struct {
	cfg      config.Config
	apiURL   string
	pushURL  string
	logLevel string
	logger   *zap.Logger
	registry *prometheus.Registry

	newClient func(a *app) queryClient
	newStream func(a *app) pushStream
}

func newApp(cfg config.Config) *app {
	return &app{
		cfg:      cfg,
		logger:   zap.NewNop(),
		registry: prometheus.NewRegistry(),
		newClient: func(a *app) queryClient {
			return httpapi.NewClient(a.apiURL, httpapi.WithTimeout(a.cfg.Client.RequestTimeout))
		},
		newStream: func(a *app) pushStream {
			return websocket.NewStream(a.pushURL, a.logger,
				websocket.WithKeepAlive(a.cfg.Push.PingPeriod, a.cfg.Push.PongWait))
		},
	}
}

// NewRootCmd creates the notifyctl command tree.
func NewRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "notifyctl",
		Short:         "Browse and follow a user's notifications",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Config{Env: a.cfg.Log.AppEnv, Level: a.logLevel})
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}
	root.CompletionOptions.HiddenDefaultCmd = true

	level := a.cfg.Log.Level
	if level == "" {
		level = "warn"
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api", a.cfg.Client.APIBaseURL, "Query API base URL")
	flags.StringVar(&a.pushURL, "push", a.cfg.Client.PushURL, "push stream URL")
	flags.StringVar(&a.logLevel, "log-level", level, "log level (debug, info, warn, error)")

	root.AddCommand(
		newListCmd(a),
		newTypesCmd(a),
		newReadCmd(a),
		newSendCmd(a),
		newWatchCmd(a),
	)
	return root
}

func userFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "user", "u", "", "user id (uuid)")
	_ = cmd.MarkFlagRequired("user")
}

func parseUser(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id %q: %w", raw, err)
	}
	return id, nil
}
