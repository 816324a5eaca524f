package repository

import (
	"context"

	"sportsmatch/internal/models"
)

// ReceivedRating is one rating a user received, tagged with the match's sport
type ReceivedRating struct {
	UserID       string
	SportsTypeID int
	Value        int
}

// CreateRating inserts a rating. The (user_id, rater_id, match_id) unique
// constraint turns a concurrent duplicate into ErrDuplicate.
func (s *Store) CreateRating(ctx context.Context, rating *models.Rating) error {
	return translate(s.db.WithContext(ctx).Create(rating).Error)
}

func (s *Store) RatingExists(ctx context.Context, userID, raterID, matchID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Rating{}).
		Where("user_id = ? AND rater_id = ? AND match_id = ?", userID, raterID, matchID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) CountMatchRatings(ctx context.Context, matchID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Rating{}).Where("match_id = ?", matchID).Count(&count).Error
	return count, err
}

// HasRated reports whether the rater submitted any rating for the match
func (s *Store) HasRated(ctx context.Context, raterID, matchID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Rating{}).
		Where("rater_id = ? AND match_id = ?", raterID, matchID).
		Count(&count).Error
	return count > 0, err
}

// ReceivedRates lists what a user was rated in a match
func (s *Store) ReceivedRates(ctx context.Context, userID, matchID string) ([]models.ReceivedRate, error) {
	rates := []models.ReceivedRate{}
	err := s.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("rater_id, value").
		Where("user_id = ? AND match_id = ?", userID, matchID).
		Order("created_at").
		Scan(&rates).Error
	return rates, err
}

// ReceivedRatings loads every rating joined with the sport of its match.
func (s *Store) ReceivedRatings(ctx context.Context) ([]ReceivedRating, error) {
	var rows []ReceivedRating
	err := s.db.WithContext(ctx).
		Table("ratings r").
		Select("r.user_id AS user_id, m.sports_type_id AS sports_type_id, r.value AS value").
		Joins("JOIN matches m ON m.id = r.match_id").
		Order("r.user_id").
		Scan(&rows).Error
	return rows, err
}
