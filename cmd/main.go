package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/bank-api/internal/command"
	"github.com/eaglebank/bank-api/internal/handler"
	"github.com/eaglebank/bank-api/internal/query"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/config"
	"github.com/eaglebank/bank-api/shared/events"
	"github.com/eaglebank/bank-api/shared/logger"
	redisClient "github.com/eaglebank/bank-api/shared/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	// Redis is optional: it backs the read-through cache and the event streams.
	var publisher events.Emitter = events.NopPublisher{}
	var redis *redisClient.Client
	if cfg.RedisEnabled() {
		redis, err = redisClient.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer redis.Close()
		store = repository.NewCachedStore(store, redis.Client, cfg.CacheTTL)
		publisher = events.NewPublisher(redis.Client)
		log.Info("redis enabled", "addr", cfg.RedisAddr, "cacheTTL", cfg.CacheTTL)
	}

	// --- CQRS wiring ---
	userCommands := command.NewUserCommandService(store, publisher)
	accountCommands := command.NewAccountCommandService(store, publisher, cfg.CashFloor)
	userQueries := query.NewUserQueryService(store)
	accountQueries := query.NewAccountQueryService(store)

	if redis != nil {
		go func() {
			subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
				Group:         "bank-api-owners",
				Consumer:      consumerName(),
				Stream:        events.AccountEventsStream,
				Handler:       userCommands.HandleAccountEvent,
				ClaimMinIdle:  cfg.EventsClaimMinIdle,
				ClaimInterval: cfg.EventsClaimInterval,
				Logger:        log,
			})
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("subscriber stopped", "error", err)
			}
		}()
	}

	router := handler.NewRouter(log,
		handler.NewUserHandler(userCommands, userQueries),
		handler.NewAccountHandler(accountCommands, accountQueries),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("bank api starting", "port", cfg.Port, "store", cfg.StoreDriver, "cashFloor", cfg.CashFloor)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on exit")
		return repository.NewMemoryStore(), nil
	case config.StoreMongo:
		store, err := repository.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		db, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.DatabaseMigrate {
			if err := repository.Migrate(db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return repository.NewPostgresStore(db), nil
	}
}

func consumerName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "local"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
