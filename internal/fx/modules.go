package fx

import (
	"context"
	"fmt"
	"time"

	"sportsmatch/internal/api"
	"sportsmatch/internal/api/handlers"
	"sportsmatch/internal/auth"
	"sportsmatch/internal/config"
	"sportsmatch/internal/database"
	"sportsmatch/internal/events"
	"sportsmatch/internal/jobs"
	"sportsmatch/internal/logger"
	"sportsmatch/internal/repository"
	"sportsmatch/internal/service"
	"sportsmatch/internal/storage"
	"sportsmatch/internal/websocket"
	"sportsmatch/internal/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideLocation(cfg *config.Config) *time.Location {
	return cfg.Location()
}

func ProvideIDGenerator(cfg *config.Config) service.IDGenerator {
	return service.NanoID(cfg.App.NanoIDSize)
}

func ProvideStore(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (*repository.Store, error) {
	db, err := database.New(cfg, log)
	if err != nil {
		return nil, err
	}
	store := repository.NewStore(db)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

// ProvideRedis initializes Redis connection with connection pooling
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("addr", cfg.GetRedisAddr()).Msg("connected to redis")

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func ProvideRankingCache(client *redis.Client) *repository.RankingCache {
	return repository.NewRankingCache(client)
}

func ProvideRankingStore(cache *repository.RankingCache) service.RankingStore {
	return cache
}

func ProvideHub(lc fx.Lifecycle, log zerolog.Logger) *websocket.Hub {
	hub := websocket.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return hub
}

// ProvidePublisher returns the worker pool that delivers events to websocket
// clients and, when brokers are configured, to Kafka.
func ProvidePublisher(lc fx.Lifecycle, cfg *config.Config, hub *websocket.Hub, log zerolog.Logger) events.Publisher {
	sinks := events.Fanout{hub}

	var producer *events.KafkaProducer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = events.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		sinks = append(sinks, producer)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka publishing enabled")
	}

	pool := worker.NewWorkerPool(cfg.Worker.Count, cfg.Worker.QueueSize, sinks, log)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			pool.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			err := pool.Shutdown(cfg.Server.ShutdownTimeout)
			if producer != nil {
				if cerr := producer.Close(); cerr != nil {
					log.Warn().Err(cerr).Msg("error closing kafka producer")
				}
			}
			return err
		},
	})
	return pool
}

func ProvideTokenManager(cfg *config.Config) *auth.TokenManager {
	return auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
}

func ProvideTokenIssuer(m *auth.TokenManager) service.TokenIssuer {
	return m
}

// ProvideExternalAuth returns nil when Kakao is not configured.
func ProvideExternalAuth(cfg *config.Config) service.ExternalAuth {
	if k := auth.NewKakao(cfg.Auth.Kakao); k != nil {
		return k
	}
	return nil
}

// ProvideImageStorage returns nil when Cloudinary is not configured.
func ProvideImageStorage(cfg *config.Config, log zerolog.Logger) (service.ImageStorage, error) {
	if cfg.Cloudinary.URL == "" {
		log.Warn().Msg("CLOUDINARY_URL not set, profile image uploads are disabled")
		return nil, nil
	}
	uploader, err := storage.NewCloudinaryUploader(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
	if err != nil {
		return nil, err
	}
	return uploader, nil
}

func ProvideUserHandler(users *service.UserService, cfg *config.Config) *handlers.UserHandler {
	return handlers.NewUserHandler(users, cfg.Auth)
}

func ProvideHealthHandler(store *repository.Store, cache *repository.RankingCache) *handlers.HealthHandler {
	return handlers.NewHealthHandler(map[string]handlers.Pinger{
		"database": store,
		"redis":    cache,
	})
}

// ProvideScheduler registers the nightly tier run and the monthly reseed.
func ProvideScheduler(lc fx.Lifecycle, cfg *config.Config, loc *time.Location, tiers *service.TierService, store *repository.Store, log zerolog.Logger) *jobs.Scheduler {
	scheduler := jobs.NewScheduler(log,
		jobs.Job{
			Name: "tier-recalculation",
			Next: jobs.Daily(loc),
			Run: func(ctx context.Context) error {
				_, err := tiers.Recalculate(ctx)
				return err
			},
		},
		jobs.Job{
			Name: "reference-data",
			Next: jobs.Monthly(loc),
			Run: func(ctx context.Context) error {
				return service.SeedReferenceData(ctx, store)
			},
		},
	)

	if !cfg.Scheduler.Enabled {
		log.Info().Msg("scheduler disabled")
		return scheduler
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return scheduler.Start(ctx)
		},
		OnStop: func(context.Context) error {
			cancel()
			scheduler.Stop()
			return nil
		},
	})
	return scheduler
}

func ProvideApp(
	cfg *config.Config,
	log zerolog.Logger,
	tokens *auth.TokenManager,
	users *handlers.UserHandler,
	matches *handlers.MatchHandler,
	tiers *handlers.TierHandler,
	health *handlers.HealthHandler,
	ws *handlers.EventsHandler,
) *fiber.App {
	return api.NewApp(api.Options{
		AllowOrigins: cfg.Server.AllowOrigins,
		CookieName:   cfg.Auth.CookieName,
		Tokens:       tokens,
		Logger:       log,
		Users:        users,
		Matches:      matches,
		Tiers:        tiers,
		Health:       health,
		Events:       ws,
	})
}

// Infrastructure is what the server and the seeder share.
var Infrastructure = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(ProvideLocation),
	fx.Provide(ProvideIDGenerator),
	fx.Provide(ProvideStore),
)

var Module = fx.Options(
	Infrastructure,
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideRankingCache),
	fx.Provide(ProvideRankingStore),
	// events
	fx.Provide(ProvideHub),
	fx.Provide(ProvidePublisher),
	// auth and storage
	fx.Provide(ProvideTokenManager),
	fx.Provide(ProvideTokenIssuer),
	fx.Provide(ProvideExternalAuth),
	fx.Provide(ProvideImageStorage),
	// svc
	fx.Provide(service.NewMatchService),
	fx.Provide(service.NewTierService),
	fx.Provide(service.NewUserService),
	fx.Provide(ProvideScheduler),
	// http
	fx.Provide(ProvideUserHandler),
	fx.Provide(handlers.NewMatchHandler),
	fx.Provide(handlers.NewTierHandler),
	fx.Provide(ProvideHealthHandler),
	fx.Provide(handlers.NewEventsHandler),
	fx.Provide(ProvideApp),
)
