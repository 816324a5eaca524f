package repository

import (
	"context"

	"sportsmatch/internal/models"

	"gorm.io/gorm/clause"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

// UpsertUser inserts an externally authenticated user, keeping an existing row untouched.
// It reports whether a new row was written.
func (s *Store) UpsertUser(ctx context.Context, user *models.User) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(user)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// AssignBeginnerTiers gives the user the beginner tier of every sport they hold no tier for.
func (s *Store) AssignBeginnerTiers(ctx context.Context, userID string) error {
	var beginners []models.Tier
	if err := s.db.WithContext(ctx).Where("value = ?", models.TierBeginner).Find(&beginners).Error; err != nil {
		return err
	}
	if len(beginners) == 0 {
		return nil
	}

	rows := make([]models.UserTier, 0, len(beginners))
	for _, t := range beginners {
		rows = append(rows, models.UserTier{UserID: userID, SportsTypeID: t.SportsTypeID, TierID: t.ID})
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *Store) FindProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// ProfileExists reports whether a profile other than excludeUserID already uses value in column.
func (s *Store) ProfileExists(ctx context.Context, column, value, excludeUserID string) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	if excludeUserID != "" {
		q = q.Where("user_id <> ?", excludeUserID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	return translate(s.db.WithContext(ctx).Create(profile).Error)
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindProfiles returns the profiles of the given users keyed by user id
func (s *Store) FindProfiles(ctx context.Context, userIDs []string) (map[string]models.UserProfile, error) {
	out := make(map[string]models.UserProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var profiles []models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}

// FindUserTier returns the tier the user holds in a sport
func (s *Store) FindUserTier(ctx context.Context, userID string, sportsTypeID int) (*models.Tier, error) {
	var tier models.Tier
	err := s.db.WithContext(ctx).
		Joins("JOIN user_tiers ut ON ut.tier_id = tiers.id").
		Where("ut.user_id = ? AND ut.sports_type_id = ?", userID, sportsTypeID).
		First(&tier).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tier, nil
}

// UserTiers lists every tier the user holds, one per sport
func (s *Store) UserTiers(ctx context.Context, userID string) ([]models.UserTierView, error) {
	var rows []struct {
		TierID    string
		Value     models.TierValue
		SportID   int
		SportName string
	}
	err := s.db.WithContext(ctx).
		Table("user_tiers ut").
		Select("t.id AS tier_id, t.value AS value, st.id AS sport_id, st.name AS sport_name").
		Joins("JOIN tiers t ON t.id = ut.tier_id").
		Joins("JOIN sports_types st ON st.id = ut.sports_type_id").
		Where("ut.user_id = ?", userID).
		Order("st.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	views := make([]models.UserTierView, 0, len(rows))
	for _, r := range rows {
		views = append(views, models.UserTierView{
			TierID:     r.TierID,
			Value:      r.Value,
			SportsType: models.SportsTypeView{ID: r.SportID, Name: r.SportName},
		})
	}
	return views, nil
}

func (s *Store) AddLikedSports(ctx context.Context, userID string, sportIDs []int) error {
	if len(sportIDs) == 0 {
		return nil
	}
	rows := make([]models.UserLikedSport, 0, len(sportIDs))
	for _, id := range sportIDs {
		rows = append(rows, models.UserLikedSport{UserID: userID, SportsTypeID: id})
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *Store) LikedSports(ctx context.Context, userID string) ([]models.SportsType, error) {
	var sports []models.SportsType
	err := s.db.WithContext(ctx).
		Joins("JOIN user_liked_sports uls ON uls.sports_type_id = sports_types.id").
		Where("uls.user_id = ?", userID).
		Order("sports_types.id").
		Find(&sports).Error
	return sports, err
}

// ListUserIDs returns every user id (used by the seeder and the ranking engine)
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.User{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}
