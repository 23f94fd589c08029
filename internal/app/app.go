// Package app assembles the server and CLI from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"waitline/internal/config"
	"waitline/internal/log"
	"waitline/internal/notify"
	"waitline/internal/queue"
	"waitline/internal/storage"
	"waitline/internal/ws"
)

// markerTTL bounds how long a threshold claim is remembered in redis.
const markerTTL = 7 * 24 * time.Hour

type App struct {
	Config *config.Config
	Log    *log.Logger
	Store  storage.Store
	Redis  *redis.Client
	Hub    *ws.Hub
	Engine *queue.Engine

	worker  *asynq.Server
	workMux *asynq.ServeMux
	closers []func() error
}

// New opens the configured store and builds the engine with its notifier.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	a := &App{Config: cfg, Log: logger}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	a.Hub = ws.NewHub(logger.Named("ws"))

	var marker notify.Marker = notify.NewMemoryMarker()
	if a.Redis = storage.InitRedis(cfg.Redis); a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		marker = notify.NewRedisMarker(a.Redis, markerTTL)
		a.closers = append(a.closers, a.Redis.Close)
	}

	notifier, err := a.buildNotifier()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Engine = queue.New(store,
		queue.WithNotifier(notifier),
		queue.WithMarker(marker),
		queue.WithThreshold(cfg.Notify.Threshold),
		queue.WithLogger(logger.Named("queue")),
	)
	return a, nil
}

// OpenStore connects the record store named by cfg.StoreBackend.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := storage.ConnectDatabase(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return storage.NewGormStore(db), nil
	case config.BackendMongo:
		client, err := storage.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return storage.NewMongoStore(client, cfg.Mongo.Database), nil
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func (a *App) buildNotifier() (notify.Notifier, error) {
	cfg := a.Config
	switch cfg.Notify.Backend {
	case config.NotifyWebsocket:
		return a.Hub, nil

	case config.NotifyAMQP:
		publisher, err := notify.NewAMQPPublisher(cfg.Notify.AMQPURL, cfg.Notify.AMQPQueue, a.Log.Named("amqp"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)
		return notify.Fanout{publisher, a.Hub}, nil

	case config.NotifyAsynq:
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		client := asynq.NewClient(redisOpt)
		a.closers = append(a.closers, client.Close)

		// The worker delivers through the hub of this process.
		a.worker = asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: a.Log.Named("asynq"),
		})
		a.workMux = notify.NewServeMux(a.Hub)
		return notify.NewTaskNotifier(client), nil
	}
	return nil, fmt.Errorf("unknown notify backend %q", cfg.Notify.Backend)
}

// Start runs the websocket hub and, for the asynq backend, the notification
// worker. Both stop when ctx is cancelled or Close is called.
func (a *App) Start(ctx context.Context) error {
	go a.Hub.Run(ctx)
	if a.worker != nil {
		if err := a.worker.Start(a.workMux); err != nil {
			return fmt.Errorf("start notification worker: %w", err)
		}
	}
	return nil
}

// Close releases every connection in reverse order of opening.
func (a *App) Close() error {
	if a.worker != nil {
		a.worker.Shutdown()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
