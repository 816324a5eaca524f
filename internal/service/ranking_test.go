package service

import (
	"fmt"
	"math/rand"
	"testing"

	"sportsmatch/internal/models"
	"sportsmatch/internal/repository"

	"github.com/stretchr/testify/assert"
)

func TestAverages(t *testing.T) {
	rows := []repository.ReceivedRating{
		{UserID: "a", SportsTypeID: 2, Value: 5},
		{UserID: "a", SportsTypeID: 2, Value: 4},
		{UserID: "a", SportsTypeID: 2, Value: 4},
		{UserID: "b", SportsTypeID: 2, Value: 1},
		{UserID: "b", SportsTypeID: 2, Value: 2},
		{UserID: "a", SportsTypeID: 1, Value: 3},
	}

	got := Averages(rows)

	assert.Equal(t, map[int]map[string]float64{2: {"a": 4.33}}, got)
}

func TestTierForPosition(t *testing.T) {
	tests := []struct {
		index, n int
		want     models.TierValue
	}{
		{0, 1, models.TierMaster},
		{0, 10, models.TierMaster},
		{1, 10, models.TierMaster},
		{2, 10, models.TierPro},
		{3, 10, models.TierPro},
		{4, 10, models.TierSemiPro},
		{6, 10, models.TierSemiPro},
		{7, 10, models.TierAmateur},
		{9, 10, models.TierAmateur},
		{1, 3, models.TierSemiPro},
		{2, 3, models.TierAmateur},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.index, tt.n), func(t *testing.T) {
			assert.Equal(t, tt.want, TierForPosition(tt.index, tt.n))
		})
	}
}

func TestRankSport_DeterministicWithTies(t *testing.T) {
	averages := map[string]float64{
		"u1": 4.5, "u2": 3.0, "u3": 4.5, "u4": 2.1, "u5": 5.0,
		"u6": 3.0, "u7": 1.0, "u8": 3.33, "u9": 4.0, "u10": 2.5,
	}

	first := RankSport(averages)

	order := make([]string, len(first))
	for i, r := range first {
		order[i] = r.UserID
	}
	assert.Equal(t, []string{"u5", "u1", "u3", "u9", "u8", "u2", "u6", "u10", "u4", "u7"}, order)
	assert.Equal(t, models.TierMaster, first[0].Tier)
	assert.Equal(t, models.TierMaster, first[1].Tier)
	assert.Equal(t, models.TierPro, first[2].Tier)
	assert.Equal(t, models.TierSemiPro, first[6].Tier)
	assert.Equal(t, models.TierAmateur, first[9].Tier)

	// map iteration order varies; the result must not
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := make(map[string]float64, len(averages))
		keys := make([]string, 0, len(averages))
		for k := range averages {
			keys = append(keys, k)
		}
		rng.Shuffle(len(keys), func(a, b int) { keys[a], keys[b] = keys[b], keys[a] })
		for _, k := range keys {
			shuffled[k] = averages[k]
		}
		assert.Equal(t, first, RankSport(shuffled))
	}
}

func TestApplyTieAwareRanking(t *testing.T) {
	users := []models.RankedUser{
		{UserID: "a", Average: 5},
		{UserID: "b", Average: 4.5},
		{UserID: "c", Average: 4.5},
		{UserID: "d", Average: 3},
	}

	entries := applyTieAwareRanking(users)

	ranks := make([]int, len(entries))
	for i, e := range entries {
		ranks[i] = e.Rank
	}
	assert.Equal(t, []int{1, 2, 2, 4}, ranks)
	assert.Empty(t, applyTieAwareRanking(nil))
}
