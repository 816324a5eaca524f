package main

import (
	"context"
	"flag"
	"time"

	"sportsmatch/internal/config"
	"sportsmatch/internal/database"
	"sportsmatch/internal/events"
	"sportsmatch/internal/logger"
	"sportsmatch/internal/repository"
	"sportsmatch/internal/service"

	"github.com/redis/go-redis/v9"
)

var (
	demoUsers   = flag.Int("demo-users", 0, "create this many demo users with past matches and ratings (0 to skip, minimum 4)")
	recalculate = flag.Bool("recalculate", true, "run the tier ranking engine after seeding")
	withRedis   = flag.Bool("redis", true, "publish rankings to redis during recalculation")
)

func main() {
	flag.Parse()
	log := logger.New()
	log.Info().Msg("starting seeder")

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// database.New applies the migrations
	db, err := database.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	store := repository.NewStore(db)
	defer store.Close()

	ctx := context.Background()
	startTime := time.Now()

	if err := service.SeedReferenceData(ctx, store); err != nil {
		log.Fatal().Err(err).Msg("failed to seed reference data")
	}
	sports, tiers := service.ReferenceData()
	log.Info().Int("sports", len(sports)).Int("tiers", len(tiers)).Msg("reference data seeded")

	newID := service.NanoID(cfg.App.NanoIDSize)
	if *demoUsers > 0 {
		stats, err := service.SeedDemo(ctx, store, newID, *demoUsers, time.Now())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed demo data")
		}
		log.Info().
			Int("users", stats.Users).
			Int("matches", stats.Matches).
			Int("ratings", stats.Ratings).
			Msg("demo data seeded")
	}

	if *recalculate {
		var cache service.RankingStore
		if *withRedis {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.GetRedisAddr(),
				Username: cfg.Redis.Username,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()

			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := client.Ping(pingCtx).Err()
			cancel()
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to redis")
			}
			cache = repository.NewRankingCache(client)
		}

		engine := service.NewTierService(store, cache, events.Nop{}, newID, log)
		summary, err := engine.Recalculate(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("tier recalculation failed")
		}
		log.Info().
			Int("ranked", summary.Ranked).
			Int("changed", summary.Changed).
			Int("failed", summary.Failed).
			Msg("tiers recalculated")
	}

	log.Info().Dur("took", time.Since(startTime)).Msg("seeder finished")
}
