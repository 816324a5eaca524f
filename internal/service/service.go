// Package service holds the domain logic: the match registry, the rating
// ledger, the tier ranking engine and the account flows around them.
package service

import (
	"context"
	"errors"
	"time"

	"sportsmatch/internal/events"
	"sportsmatch/internal/models"
	"sportsmatch/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// IDGenerator returns a new entity id.
type IDGenerator func() (string, error)

// NanoID generates URL-safe ids of the given length.
func NanoID(size int) IDGenerator {
	if size <= 0 {
		size = 21
	}
	return func() (string, error) {
		return gonanoid.New(size)
	}
}

// RankingStore keeps published rankings and the cross-instance recalculation lock.
type RankingStore interface {
	StoreRanking(ctx context.Context, sportsTypeID int, ranked []models.RankingEntry) error
	GetRanking(ctx context.Context, sportsTypeID, offset, limit int) ([]models.RankingEntry, int64, error)
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// ImageStorage uploads a binary and returns its public URL.
type ImageStorage interface {
	UploadImage(ctx context.Context, key string, img models.Image) (string, error)
}

// TokenIssuer signs access tokens for a user id.
type TokenIssuer interface {
	Generate(userID string) (string, time.Time, error)
}

// ExternalAuth is an OAuth provider resolving an authorization code to a stable subject.
type ExternalAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
}

// emitter publishes events once their transaction has committed. Delivery
// failures are logged; the state change already happened.
type emitter struct {
	publisher events.Publisher
	log       zerolog.Logger
}

func (e emitter) emit(ctx context.Context, t events.Type, key string, payload interface{}) {
	if e.publisher == nil {
		return
	}
	ev, err := events.New(t, key, payload)
	if err != nil {
		e.log.Error().Err(err).Str("event", string(t)).Msg("failed to build event")
		return
	}
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.log.Warn().Err(err).Str("event", string(t)).Str("key", key).Msg("failed to publish event")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
