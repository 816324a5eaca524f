package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sportsmatch/internal/apperr"
	"sportsmatch/internal/events"
	"sportsmatch/internal/models"
	"sportsmatch/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRankingLimit = 50
	maxRankingLimit     = 100

	// recalculationLockTTL bounds how long a crashed run can block the next one
	recalculationLockTTL = 10 * time.Minute
)

// TierService runs the tier ranking engine and serves tier reference data
// and the rankings it publishes.
type TierService struct {
	store   *repository.Store
	cache   RankingStore
	events  emitter
	newID   IDGenerator
	now     func() time.Time
	lockTTL time.Duration
	log     zerolog.Logger
}

// NewTierService creates the engine. cache may be nil, in which case runs are
// not coordinated across instances and rankings are not published.
func NewTierService(store *repository.Store, cache RankingStore, publisher events.Publisher, newID IDGenerator, log zerolog.Logger) *TierService {
	log = log.With().Str("component", "tier_engine").Logger()
	return &TierService{
		store:   store,
		cache:   cache,
		events:  emitter{publisher: publisher, log: log},
		newID:   newID,
		now:     time.Now,
		lockTTL: recalculationLockTTL,
		log:     log,
	}
}

// Recalculate re-ranks every sport from the rating ledger and moves users
// with enough ratings to the tier of their percentile. Failures on single
// users are logged and counted; the run continues.
func (s *TierService) Recalculate(ctx context.Context) (*models.RecalculationSummary, error) {
	start := s.now()

	if s.cache != nil {
		token, err := s.newID()
		if err != nil {
			return nil, fmt.Errorf("generate lock token: %w", err)
		}
		acquired, err := s.cache.AcquireLock(ctx, repository.RecalculationLockKey, token, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire recalculation lock: %w", err)
		}
		if !acquired {
			s.log.Info().Msg("tier recalculation already running elsewhere, skipping")
			return &models.RecalculationSummary{Skipped: true}, nil
		}
		defer func() {
			// the run context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.cache.ReleaseLock(releaseCtx, repository.RecalculationLockKey, token); err != nil {
				s.log.Warn().Err(err).Msg("failed to release recalculation lock")
			}
		}()
	}

	var (
		sports  []models.SportsType
		ratings []repository.ReceivedRating
		table   map[int]map[models.TierValue]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sports, err = s.store.ListSports(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ratings, err = s.store.ReceivedRatings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		table, err = s.store.TierTable(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load ranking input: %w", err)
	}

	averages := Averages(ratings)
	summary := &models.RecalculationSummary{Sports: len(sports)}

	for _, sport := range sports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ranked := RankSport(averages[sport.ID])
		changed, failed := s.applySport(ctx, sport, ranked, table[sport.ID])

		summary.Ranked += len(ranked)
		summary.Changed += changed
		summary.Failed += failed

		if s.cache != nil {
			if err := s.cache.StoreRanking(ctx, sport.ID, applyTieAwareRanking(ranked)); err != nil {
				s.log.Warn().Err(err).Str("sport", sport.Name).Msg("failed to publish ranking")
			}
		}
	}

	summary.Duration = s.now().Sub(start).String()
	s.log.Info().
		Int("sports", summary.Sports).
		Int("ranked", summary.Ranked).
		Int("changed", summary.Changed).
		Int("failed", summary.Failed).
		Str("took", summary.Duration).
		Msg("tier recalculation finished")
	s.events.emit(ctx, events.TiersRecalculated, "tiers", summary)

	return summary, nil
}

// applySport swaps the tier of every ranked user whose tier changed.
func (s *TierService) applySport(ctx context.Context, sport models.SportsType, ranked []models.RankedUser, tierIDs map[models.TierValue]string) (changed, failed int) {
	if len(ranked) == 0 {
		return 0, 0
	}

	current, err := s.store.UserTierIDs(ctx, sport.ID)
	if err != nil {
		s.log.Error().Err(err).Str("sport", sport.Name).Msg("failed to load current tiers")
		return 0, len(ranked)
	}

	for _, u := range ranked {
		target, ok := tierIDs[u.Tier]
		if !ok {
			s.log.Error().Str("sport", sport.Name).Str("tier", string(u.Tier)).Msg("tier missing from reference data")
			failed++
			continue
		}
		if current[u.UserID] == target {
			continue
		}

		err := s.store.WithTx(ctx, func(tx *repository.Store) error {
			return tx.SwapUserTier(ctx, u.UserID, sport.ID, target)
		})
		if err != nil {
			s.log.Error().Err(err).Str("user", u.UserID).Str("sport", sport.Name).Msg("failed to update tier")
			failed++
			continue
		}
		changed++
	}
	return changed, failed
}

// ListTiers returns every tier value once, lowest first.
func (s *TierService) ListTiers(ctx context.Context) ([]models.TierInfo, error) {
	tiers, err := s.store.DistinctTiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].Value.Rank() < tiers[j].Value.Rank()
	})
	return tiers, nil
}

// Rankings returns a page of the last published ranking of a sport.
func (s *TierService) Rankings(ctx context.Context, sportName string, offset, limit int) (*models.RankingResponse, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	if limit > maxRankingLimit {
		limit = maxRankingLimit
	}

	sport, err := s.store.FindSportByName(ctx, sportName)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrSportTypeNotFound
		}
		return nil, fmt.Errorf("load sports type: %w", err)
	}
	if s.cache == nil {
		return nil, apperr.ErrInternal.WithMessage("ranking cache is not configured")
	}

	entries, total, err := s.cache.GetRanking(ctx, sport.ID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("get ranking: %w", err)
	}

	return &models.RankingResponse{
		SportsType: sport.Name,
		Data:       entries,
		Offset:     offset,
		Limit:      limit,
		Total:      total,
	}, nil
}
