package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sportsmatch/internal/database/dbtest"
	"sportsmatch/internal/events"
	"sportsmatch/internal/models"
	"sportsmatch/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.got))
	for _, e := range p.got {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	ctx     context.Context
	store   *repository.Store
	pub     *recordingPublisher
	matches *MatchService
	tiers   *TierService
	seq     atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		ctx:   context.Background(),
		store: repository.NewStore(dbtest.New(t)),
		pub:   &recordingPublisher{},
	}
	require.NoError(t, SeedReferenceData(f.ctx, f.store))

	f.matches = NewMatchService(f.store, f.pub, f.newID, time.UTC, zerolog.Nop())
	f.matches.now = func() time.Time { return testNow }

	f.tiers = NewTierService(f.store, nil, f.pub, f.newID, zerolog.Nop())
	f.tiers.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) newID() (string, error) {
	return fmt.Sprintf("id-%04d", f.seq.Add(1)), nil
}

// user creates an account with the beginner tier everywhere and a profile of gender g.
func (f *fixture) user(t *testing.T, g models.Gender) string {
	t.Helper()
	id, _ := f.newID()
	require.NoError(t, f.store.CreateUser(f.ctx, &models.User{ID: id, Provider: models.ProviderKakao}))
	require.NoError(t, f.store.AssignBeginnerTiers(f.ctx, id))
	require.NoError(t, f.store.CreateProfile(f.ctx, &models.UserProfile{
		UserID:      id,
		Nickname:    "nick-" + id,
		PhoneNumber: "phone-" + id,
		Gender:      g,
	}))
	return id
}

func (f *fixture) createMatch(t *testing.T, hostID string, capability int, g models.Gender) string {
	t.Helper()
	resp, err := f.matches.Create(f.ctx, hostID, models.CreateMatchRequest{
		SportsType: "soccer",
		Title:      "Sunday futsal",
		Content:    "Friendly five-a-side game",
		Gender:     g,
		Capability: capability,
		PlaceName:  "Riverside pitch",
		Region:     "seoul",
		Address:    "1 River road",
		MatchDay:   testNow.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	return resp.ID
}

// fill adds n more users of gender g to the roster, bypassing the join rules.
func (f *fixture) fill(t *testing.T, matchID string, n int, g models.Gender) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := f.user(t, g)
		require.NoError(t, f.store.AddParticipant(f.ctx, matchID, id))
		ids = append(ids, id)
	}
	return ids
}

func (f *fixture) rosterSize(t *testing.T, matchID string) int {
	t.Helper()
	n, err := f.store.CountParticipants(f.ctx, matchID)
	require.NoError(t, err)
	return n
}

// setMatchDay moves a match in time, e.g. into the past so it can be rated.
func (f *fixture) setMatchDay(t *testing.T, matchID string, day time.Time) {
	t.Helper()
	require.NoError(t, f.store.UpdateMatch(f.ctx, matchID, map[string]interface{}{"match_day": day.UTC()}))
}
