package repository

import (
	"context"

	"sportsmatch/internal/models"

	"gorm.io/gorm/clause"
)

func (s *Store) ListSports(ctx context.Context) ([]models.SportsType, error) {
	var sports []models.SportsType
	err := s.db.WithContext(ctx).Order("id").Find(&sports).Error
	return sports, err
}

func (s *Store) FindSportByName(ctx context.Context, name string) (*models.SportsType, error) {
	var sport models.SportsType
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&sport).Error; err != nil {
		return nil, translate(err)
	}
	return &sport, nil
}

func (s *Store) FindSportsByNames(ctx context.Context, names []string) ([]models.SportsType, error) {
	var sports []models.SportsType
	err := s.db.WithContext(ctx).Where("name IN ?", names).Order("id").Find(&sports).Error
	return sports, err
}

func (s *Store) FindTier(ctx context.Context, id string) (*models.Tier, error) {
	var tier models.Tier
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&tier).Error; err != nil {
		return nil, translate(err)
	}
	return &tier, nil
}

// FindTierByValue resolves the tier row of a value within a sport
func (s *Store) FindTierByValue(ctx context.Context, value models.TierValue, sportsTypeID int) (*models.Tier, error) {
	var tier models.Tier
	err := s.db.WithContext(ctx).
		Where("value = ? AND sports_type_id = ?", value, sportsTypeID).
		First(&tier).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tier, nil
}

// TiersByID loads the given tiers keyed by id
func (s *Store) TiersByID(ctx context.Context, ids []string) (map[string]models.Tier, error) {
	out := make(map[string]models.Tier, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var tiers []models.Tier
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tiers).Error; err != nil {
		return nil, err
	}
	for _, t := range tiers {
		out[t.ID] = t
	}
	return out, nil
}

// TierTable returns sport id -> tier value -> tier id
func (s *Store) TierTable(ctx context.Context) (map[int]map[models.TierValue]string, error) {
	var tiers []models.Tier
	if err := s.db.WithContext(ctx).Find(&tiers).Error; err != nil {
		return nil, err
	}
	out := make(map[int]map[models.TierValue]string)
	for _, t := range tiers {
		if out[t.SportsTypeID] == nil {
			out[t.SportsTypeID] = make(map[models.TierValue]string)
		}
		out[t.SportsTypeID][t.Value] = t.ID
	}
	return out, nil
}

// DistinctTiers returns one row per tier value with its description
func (s *Store) DistinctTiers(ctx context.Context) ([]models.TierInfo, error) {
	var rows []models.TierInfo
	err := s.db.WithContext(ctx).
		Model(&models.Tier{}).
		Select("value, MIN(description) AS description").
		Group("value").
		Scan(&rows).Error
	return rows, err
}

// UserTierIDs returns the current tier id of every user holding a tier in the sport
func (s *Store) UserTierIDs(ctx context.Context, sportsTypeID int) (map[string]string, error) {
	var rows []models.UserTier
	if err := s.db.WithContext(ctx).Where("sports_type_id = ?", sportsTypeID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.UserID] = r.TierID
	}
	return out, nil
}

// SwapUserTier points the user's (user, sport) association at tierID in one
// statement, inserting it when missing. Readers never observe zero or two tiers.
func (s *Store) SwapUserTier(ctx context.Context, userID string, sportsTypeID int, tierID string) error {
	row := models.UserTier{UserID: userID, SportsTypeID: sportsTypeID, TierID: tierID}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "sports_type_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tier_id"}),
	}).Create(&row).Error
}

// SeedReferenceData inserts sports and tiers, leaving existing rows alone
func (s *Store) SeedReferenceData(ctx context.Context, sports []models.SportsType, tiers []models.Tier) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if len(sports) > 0 {
			err := tx.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&sports).Error
			if err != nil {
				return err
			}
		}
		if len(tiers) > 0 {
			err := tx.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tiers).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
