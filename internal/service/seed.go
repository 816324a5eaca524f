package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"sportsmatch/internal/models"
	"sportsmatch/internal/repository"
)

var defaultSports = []models.SportsType{
	{ID: 1, Name: "tennis", Rule: "Singles or doubles on a marked court; a set is won by the first side to six games with a two-game lead."},
	{ID: 2, Name: "soccer", Rule: "Two teams of up to eleven players; the ball is played without hands except by the goalkeeper."},
	{ID: 3, Name: "basketball", Rule: "Two teams of five score by shooting through the opponent's hoop; a shot clock limits possession."},
	{ID: 4, Name: "baseball", Rule: "Two teams of nine alternate batting and fielding over nine innings."},
	{ID: 5, Name: "badminton", Rule: "A shuttlecock is hit over the net; rallies are played to 21 points."},
}

var tierDescriptions = map[models.TierValue]string{
	models.TierBeginner: "First steps in the sport, building the fundamentals before bigger challenges",
	models.TierAmateur:  "Fundamentals in place and a growing passion for the game",
	models.TierSemiPro:  "A deep understanding of the game and testing one's limits",
	models.TierPro:      "An expert with a high level of skill and experience",
	models.TierMaster:   "A true master standing at the top of the sport",
}

// ReferenceData returns the default sports and one tier of every value per sport.
// Tier ids are derived from the sport and value so reseeding never duplicates rows.
func ReferenceData() ([]models.SportsType, []models.Tier) {
	sports := make([]models.SportsType, len(defaultSports))
	copy(sports, defaultSports)

	tiers := make([]models.Tier, 0, len(sports)*len(models.TierValues))
	for _, sport := range sports {
		for _, value := range models.TierValues {
			tiers = append(tiers, models.Tier{
				ID:           fmt.Sprintf("%d-%s", sport.ID, value),
				Value:        value,
				Description:  tierDescriptions[value],
				SportsTypeID: sport.ID,
			})
		}
	}
	return sports, tiers
}

// SeedReferenceData inserts the default sports and tiers, keeping existing rows.
func SeedReferenceData(ctx context.Context, store *repository.Store) error {
	sports, tiers := ReferenceData()
	if err := store.SeedReferenceData(ctx, sports, tiers); err != nil {
		return fmt.Errorf("seed reference data: %w", err)
	}
	return nil
}

// DemoStats reports what SeedDemo wrote.
type DemoStats struct {
	Users   int
	Matches int
	Ratings int
}

var demoRegions = []string{"seoul", "busan", "incheon", "daegu"}

// SeedDemo creates users with profiles, finished matches between them and
// peer ratings, so the tier engine has something to rank. Reference data
// must already be present.
func SeedDemo(ctx context.Context, store *repository.Store, newID IDGenerator, users int, now time.Time) (*DemoStats, error) {
	if users < 4 {
		return nil, fmt.Errorf("need at least 4 demo users, got %d", users)
	}
	rng := rand.New(rand.NewSource(now.UnixNano()))
	stats := &DemoStats{}

	ids := make([]string, 0, users)
	for i := 0; i < users; i++ {
		id, err := newID()
		if err != nil {
			return nil, err
		}
		gender := models.GenderMale
		if i%2 == 1 {
			gender = models.GenderFemale
		}

		err = store.WithTx(ctx, func(tx *repository.Store) error {
			if err := tx.CreateUser(ctx, &models.User{ID: id, Provider: models.ProviderKakao}); err != nil {
				return err
			}
			if err := tx.AssignBeginnerTiers(ctx, id); err != nil {
				return err
			}
			return tx.CreateProfile(ctx, &models.UserProfile{
				UserID:        id,
				Nickname:      "player_" + id,
				PhoneNumber:   "demo-" + id,
				Gender:        gender,
				BankName:      "demo bank",
				AccountNumber: fmt.Sprintf("%010d", rng.Int63n(10000000000)),
			})
		})
		if err != nil {
			return nil, fmt.Errorf("seed demo user: %w", err)
		}
		ids = append(ids, id)
		stats.Users++
	}

	sports, tiers := ReferenceData()
	beginnerOf := make(map[int]string, len(sports))
	for _, t := range tiers {
		if t.Value == models.TierBeginner {
			beginnerOf[t.SportsTypeID] = t.ID
		}
	}

	// every group of four users plays one finished match per sport and rates each other
	for start := 0; start+4 <= len(ids); start += 4 {
		roster := ids[start : start+4]
		for _, sport := range sports {
			matchID, err := newID()
			if err != nil {
				return nil, err
			}
			match := &models.Match{
				ID:           matchID,
				HostID:       roster[0],
				SportsTypeID: sport.ID,
				TierID:       beginnerOf[sport.ID],
				Title:        fmt.Sprintf("Friendly %s game", sport.Name),
				Content:      "Demo match generated by the seeder.",
				Gender:       models.GenderBoth,
				Capability:   len(roster),
				Region:       demoRegions[rng.Intn(len(demoRegions))],
				PlaceName:    "Community ground",
				Address:      "1 Demo street",
				MatchDay:     now.Add(-time.Duration(1+rng.Intn(72)) * time.Hour).UTC(),
			}

			var created int
			err = store.WithTx(ctx, func(tx *repository.Store) error {
				created = 0
				if err := tx.CreateMatch(ctx, match); err != nil {
					return err
				}
				for _, uid := range roster {
					if err := tx.AddParticipant(ctx, matchID, uid); err != nil {
						return err
					}
				}
				for _, rater := range roster {
					for _, ratee := range roster {
						if rater == ratee {
							continue
						}
						rid, err := newID()
						if err != nil {
							return err
						}
						rating := &models.Rating{ID: rid, UserID: ratee, RaterID: rater, MatchID: matchID, Value: 1 + rng.Intn(5)}
						if err := tx.CreateRating(ctx, rating); err != nil {
							return err
						}
						created++
					}
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("seed demo match: %w", err)
			}
			stats.Matches++
			stats.Ratings += created
		}
	}
	return stats, nil
}
