package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaily(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	next := Daily(seoul)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"afternoon", time.Date(2026, 3, 1, 15, 30, 0, 0, seoul), time.Date(2026, 3, 2, 0, 0, 0, 0, seoul)},
		{"exactly midnight", time.Date(2026, 3, 2, 0, 0, 0, 0, seoul), time.Date(2026, 3, 3, 0, 0, 0, 0, seoul)},
		{"month end", time.Date(2026, 1, 31, 23, 59, 0, 0, seoul), time.Date(2026, 2, 1, 0, 0, 0, 0, seoul)},
		// 16:00 UTC is already the next day in Seoul
		{"utc input", time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC), time.Date(2026, 3, 3, 0, 0, 0, 0, seoul)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(next(tt.now)), "got %s", next(tt.now))
		})
	}
}

func TestMonthly(t *testing.T) {
	next := Monthly(time.UTC)

	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), next(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), next(time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), next(time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)))
}

func TestScheduler_RunsAndSurvivesFailures(t *testing.T) {
	var ok, failing atomic.Int64

	s := NewScheduler(zerolog.Nop(),
		Job{Name: "ok", Next: Every(5 * time.Millisecond), Run: func(context.Context) error {
			ok.Add(1)
			return nil
		}},
		Job{Name: "failing", Next: Every(5 * time.Millisecond), Run: func(context.Context) error {
			if failing.Add(1)%2 == 0 {
				panic("boom")
			}
			return errors.New("nope")
		}},
	)

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))

	require.Eventually(t, func() bool {
		return ok.Load() >= 3 && failing.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())

	m := s.GetMetrics()
	assert.GreaterOrEqual(t, m["failures"].(int64), int64(3))
	assert.GreaterOrEqual(t, m["runs"].(int64), int64(6))

	// stopping twice is harmless
	s.Stop()
}

func TestScheduler_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(zerolog.Nop(), Job{Name: "never", Next: Every(time.Hour), Run: func(context.Context) error { return nil }})
	require.NoError(t, s.Start(ctx))

	cancel()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
