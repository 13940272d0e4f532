package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"hunt-event-service/internal/app"
	"hunt-event-service/internal/config"
	"hunt-event-service/internal/logging"
	redisrooms "hunt-event-service/internal/infra/redis"
	transport "hunt-event-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string, envPort string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the event API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", envPort, "port to listen on (overrides server.port)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(serviceName, cfg.Log.Level)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.Game.CatalogFile != "" {
		if err := importCatalog(ctx, cfg, b, cfg.Game.CatalogFile, log); err != nil {
			return err
		}
	}

	var rooms app.RoomDirectory
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unavailable; rooms resolve from the store only")
		}
		rooms = redisrooms.NewRoomDirectory(client, config.TTLDuration(cfg.Redis.TTL, 6*time.Hour))
	}

	board := app.NewClearBoard(b.store, cfg.Game.BoardSize)
	router := transport.NewRouter(transport.Services{
		Answers:   app.NewAnswerRegistrar(b.store, cfg.Game.FinalQuestionID, log),
		Finisher:  app.NewChallengeFinisher(b.store, rooms, board, log),
		Selector:  app.NewQuestionSelector(b.store, cfg.Game.MaxQuestionDraws, log),
		Registrar: app.NewChallengeRegistrar(b.store, rooms, log),
		Board:     board,
		Ping:      b.ping,
	}, log)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return serve(ctx, server, log)
}

// serve runs server until ctx is canceled, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server, log logrus.FieldLogger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", server.Addr).Info("starting event API")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
