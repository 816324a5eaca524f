package service

import (
	"math"
	"sort"

	"sportsmatch/internal/models"
	"sportsmatch/internal/repository"
)

// MinRatings is the number of ratings a user needs in a sport before the
// engine ranks them there.
const MinRatings = 3

type ratingSum struct {
	total int
	count int
}

// Averages groups received ratings by sport and user and returns the mean,
// rounded to two decimals, of every group holding at least MinRatings ratings.
func Averages(rows []repository.ReceivedRating) map[int]map[string]float64 {
	sums := make(map[int]map[string]*ratingSum)
	for _, r := range rows {
		bySport := sums[r.SportsTypeID]
		if bySport == nil {
			bySport = make(map[string]*ratingSum)
			sums[r.SportsTypeID] = bySport
		}
		s := bySport[r.UserID]
		if s == nil {
			s = &ratingSum{}
			bySport[r.UserID] = s
		}
		s.total += r.Value
		s.count++
	}

	out := make(map[int]map[string]float64, len(sums))
	for sportID, bySport := range sums {
		for userID, s := range bySport {
			if s.count < MinRatings {
				continue
			}
			if out[sportID] == nil {
				out[sportID] = make(map[string]float64)
			}
			out[sportID][userID] = round2(float64(s.total) / float64(s.count))
		}
	}
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// RankSport orders users by average descending, ties broken by user id, and
// assigns each the tier of its percentile position.
func RankSport(averages map[string]float64) []models.RankedUser {
	ranked := make([]models.RankedUser, 0, len(averages))
	for userID, avg := range averages {
		ranked = append(ranked, models.RankedUser{UserID: userID, Average: avg})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Average != ranked[j].Average {
			return ranked[i].Average > ranked[j].Average
		}
		return ranked[i].UserID < ranked[j].UserID
	})

	for i := range ranked {
		ranked[i].Tier = TierForPosition(i, len(ranked))
	}
	return ranked
}

// TierForPosition maps a 0-based rank within n ranked users to a tier:
// index/n <= 10% master, <= 30% pro, <= 60% semi-pro, otherwise amateur.
func TierForPosition(index, n int) models.TierValue {
	if n <= 0 {
		return models.TierAmateur
	}
	// integer form of index/n <= p/100
	switch pct := index * 100; {
	case pct <= 10*n:
		return models.TierMaster
	case pct <= 30*n:
		return models.TierPro
	case pct <= 60*n:
		return models.TierSemiPro
	default:
		return models.TierAmateur
	}
}

// applyTieAwareRanking applies the 1224 ranking system
// Users with the same average get the same rank
// The next rank is offset by the number of users sharing the previous rank
// users must be a whole sport's ranking so ties across pages share a rank
func applyTieAwareRanking(users []models.RankedUser) []models.RankingEntry {
	entries := make([]models.RankingEntry, 0, len(users))

	currentRank := 1
	var previous float64
	sameRankCount := 0

	for i, u := range users {
		if i == 0 {
			previous = u.Average
			sameRankCount = 1
		} else if u.Average == previous {
			sameRankCount++
		} else {
			currentRank += sameRankCount
			previous = u.Average
			sameRankCount = 1
		}

		entries = append(entries, models.RankingEntry{
			Rank:    currentRank,
			UserID:  u.UserID,
			Average: u.Average,
			Tier:    u.Tier,
		})
	}
	return entries
}
