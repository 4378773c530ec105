package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"usersvc/internal/config"
	"usersvc/internal/database"
	"usersvc/internal/repositories"
	"usersvc/internal/server"
	"usersvc/internal/services"
	"usersvc/pkg/logger"
	"usersvc/pkg/rabbitmq"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	// --- Initialize the user store ---
	store, err := openStore(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Error().Err(err).Msg("failed to close user store")
		}
	}()

	// --- Initialize RabbitMQ Client (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQ.Enabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:   cfg.RabbitMQ.URL,
			Queue: cfg.RabbitMQ.Queue,
		}, log)
		if err != nil {
			return fmt.Errorf("initialize rabbitmq client: %w", err)
		}
		defer func() {
			if err := mqClient.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close rabbitmq client")
			}
		}()
		publisher = mqClient

		if cfg.RabbitMQ.ConsumerEnabled {
			if err := mqClient.ConsumeUserEvents(rabbitmq.LogUserEvent(log)); err != nil {
				log.Error().Err(err).Msg("failed to start user event consumer")
			}
		}
	} else {
		log.Info().Msg("RABBITMQ_URL not set, user events disabled")
	}

	userService := services.NewUserService(store.repo, publisher, log)

	app := server.New(server.Dependencies{
		UserService: userService,
		Ready:       store.ready,
		Logger:      log,
	})

	// --- Start HTTP Server ---
	listenErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Port).
			Str("env", cfg.Env).
			Str("driver", cfg.Database.Driver).
			Msg("starting server")
		listenErr <- app.Listen(cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen on %s: %w", cfg.Port, err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("server gracefully stopped")
	return nil
}

// userStore bundles the repository chosen by DB_DRIVER with its lifecycle hooks.
type userStore struct {
	repo  repositories.UserRepository
	ready func(ctx context.Context) error
	close func() error
}

func openStore(cfg config.DatabaseConfig, log zerolog.Logger) (*userStore, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn().Msg("using in-memory user store, data is lost on restart")
		return &userStore{
			repo:  repositories.NewMemoryUserRepository(),
			close: func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &userStore{
		repo:  repositories.NewGORMUserRepository(db),
		ready: database.Pinger(db),
		close: func() error { return database.Close(db) },
	}, nil
}
