package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/classhub-backend/internal/broadcast"
	"github.com/rocketscienceinc/classhub-backend/internal/config"
	"github.com/rocketscienceinc/classhub-backend/internal/repository"
	"github.com/rocketscienceinc/classhub-backend/internal/repository/storage"
	"github.com/rocketscienceinc/classhub-backend/internal/room"
	"github.com/rocketscienceinc/classhub-backend/internal/service"
	"github.com/rocketscienceinc/classhub-backend/internal/usecase"
	"github.com/rocketscienceinc/classhub-backend/transport/rest"
	"github.com/rocketscienceinc/classhub-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// broadcaster is satisfied by both the local hub and the redis relay.
type broadcaster interface {
	Register(clientID string) <-chan []byte
	Unregister(clientID string)
	SendTo(ctx context.Context, clientID, action string, payload any) error
	Subscribe(clientID, topic string)
	Unsubscribe(clientID, topic string)
	PublishRoom(ctx context.Context, topic, action string, payload any) error
	PublishAll(ctx context.Context, action string, payload any) error
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite schema: %w", err)
	}

	relayErrCh := make(chan error, 1)
	hub, err := newBroadcaster(ctx, logger, conf, relayErrCh)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(sqliteStorage.Connection)
	registry := room.NewRegistry()

	dispatcher := usecase.NewDispatcher(logger, registry, hub, userRepo, usecase.Rewards{
		TicTacToeWin:         conf.Points.TTTWin,
		RockPaperScissorsWin: conf.Points.RPSWin,
	})

	classroom := usecase.NewClassroom(logger,
		usecase.ClassroomConfig{
			MemeDir:          conf.MemeDir,
			PublicURL:        conf.PublicURL,
			AttendancePoints: conf.Points.Attendance,
			VotePoints:       conf.Points.Vote,
		},
		userRepo,
		repository.NewAttendanceRepository(sqliteStorage.Connection),
		repository.NewPollRepository(sqliteStorage.Connection),
		repository.NewUploadRepository(sqliteStorage.Connection),
		hub,
		registry,
	)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, classroom, service.NewBotService())
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, dispatcher, hub)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case err = <-relayErrCh:
		return fmt.Errorf("broadcast relay error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newBroadcaster builds the in-process hub, wrapped in a redis relay when configured.
// The relay subscription runs until ctx is done.
func newBroadcaster(ctx context.Context, logger *slog.Logger, conf *config.Config, errCh chan error) (broadcaster, error) {
	log := logger.With("method", "newBroadcaster", "driver", conf.Broadcast.Driver)

	hub := broadcast.NewHub(logger, conf.Broadcast.ClientBuffer)
	if conf.Broadcast.Driver != config.BroadcastRedis {
		return hub, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	relay := broadcast.NewRedisRelay(logger, hub, redisStorage.Connection, conf.Broadcast.Channel)
	ready := make(chan struct{})

	go func() {
		defer func() {
			if closeErr := redisStorage.Close(); closeErr != nil {
				log.Error("could not close redis storage", "error", closeErr)
			}
		}()

		if runErr := relay.Run(ctx, ready); runErr != nil {
			errCh <- runErr
		}
	}()

	select {
	case <-ready:
	case err = <-errCh:
		return nil, fmt.Errorf("could not start broadcast relay: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return relay, nil
}
