package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"chat-client/internal/api"
	"chat-client/internal/channel"
	"chat-client/internal/config"
	"chat-client/internal/console"
	"chat-client/internal/db"
	"chat-client/internal/directory"
	"chat-client/internal/handlers"
	"chat-client/internal/invites"
	"chat-client/internal/logging"
	"chat-client/internal/observability"
	"chat-client/internal/rabbitmq"
	"chat-client/internal/repositories"
	"chat-client/internal/session"
	"chat-client/internal/telemetry"
)

const serviceName = "chat-client"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := logging.L()
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: serviceName})
	logger := logging.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTel.Endpoint, serviceName)
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(shutdownCtx)
	}()

	sess, err := resolveSession(cfg.Session)
	if err != nil {
		logger.Fatal().Err(err).Msg("no usable session; set session.token or session.user_id")
	}
	logger = logger.With().Int(logging.FieldUser, sess.UserID).Logger()
	ctx = logging.WithLogger(ctx, logger)

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	audit := telemetry.NewAuditEmitter(publisher, cfg.AMQP.RoutingKey, serviceName, cfg.Environment)
	logger.Info().Str("mode", rabbitmq.PublisherMode(publisher)).Str("reason", rabbitmq.PublisherNoopReason(publisher)).Msg("event publisher ready")

	var (
		history  console.History
		archiver channel.Archiver
	)
	if cfg.Archive.DSN != "" {
		database, err := db.Connect(ctx, cfg.Archive.DSN)
		if err != nil {
			logger.Warn().Err(err).Msg("transcript archive disabled")
		} else {
			defer database.Close()
			repo := repositories.NewTranscriptRepo(database, sess.UserID)
			history, archiver = repo, repo
		}
	}

	client := api.New(cfg.API.BaseURL, sess, api.WithTimeout(cfg.API.Timeout))

	newChannel := func(roomKey string, opts ...channel.Option) *channel.Channel {
		chCfg := channel.Config{
			URL:            cfg.API.WSURL,
			RoomKey:        roomKey,
			MaxRetries:     cfg.Channel.MaxRetries,
			InitialBackoff: cfg.Channel.InitialBackoff,
			MaxBackoff:     cfg.Channel.MaxBackoff,
			PingInterval:   cfg.Channel.PingInterval,
			PongWait:       cfg.Channel.PongWait,
			WriteWait:      cfg.Channel.WriteWait,
			MaxMessageSize: cfg.Channel.MaxMessageSize,
			SendBuffer:     cfg.Channel.SendBuffer,
		}
		if archiver != nil {
			opts = append(opts, channel.WithArchive(archiver))
		}
		return channel.New(chCfg, sess, opts...)
	}

	ui := console.New(os.Stdin, os.Stdout, newChannel, history)
	dir := directory.New(client, directory.Hooks{Alert: ui, Confirm: ui, Navigate: ui}, audit, sess.UserID)
	defer dir.Close()
	inv := invites.New(client, ui, audit, sess.UserID)
	defer inv.Close()
	ui.Bind(dir, inv)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return ui.Run(ctx)
	})

	if cfg.Diagnostics.Addr != "" {
		if cfg.Environment != "dev" {
			gin.SetMode(gin.ReleaseMode)
		}
		server := &http.Server{
			Addr: cfg.Diagnostics.Addr,
			Handler: handlers.NewRouter(handlers.RouterConfig{
				ServiceName: serviceName,
				Emitter:     audit,
				State:       ui,
				UserID:      sess.UserID,
				Debug:       cfg.Diagnostics.Debug,
				DebugToken:  cfg.Diagnostics.Token,
			}),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info().Str("addr", server.Addr).Msg("diagnostics listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("chat client stopped with error")
	}
}

// resolveSession prefers the user id carried in the session token and falls
// back to the configured one.
func resolveSession(cfg config.SessionConfig) (session.Session, error) {
	var (
		sess session.Session
		err  error
	)
	if cfg.Token != "" {
		sess, err = session.FromToken(cfg.Token)
	}
	if err != nil || !sess.Valid() {
		if cfg.UserID <= 0 {
			if err == nil {
				err = session.ErrNoIdentity
			}
			return session.Session{}, err
		}
		sess = session.New(cfg.UserID, cfg.Token)
	}
	sess.CookieName = cfg.CookieName
	return sess, nil
}
