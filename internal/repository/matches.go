package repository

import (
	"context"
	"strings"
	"time"

	"sportsmatch/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchQuery describes a filtered match listing. Zero values disable a filter.
type MatchQuery struct {
	From         time.Time
	To           time.Time
	Region       string
	SportsTypeID int
	TierValue    models.TierValue
	Keywords     []string
}

func (s *Store) CreateMatch(ctx context.Context, match *models.Match) error {
	return translate(s.db.WithContext(ctx).Create(match).Error)
}

func (s *Store) FindMatch(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&match).Error; err != nil {
		return nil, translate(err)
	}
	return &match, nil
}

// LockMatch reads the match row with SELECT ... FOR UPDATE. Concurrent
// lockers of the same match wait until the holding transaction ends.
// SQLite has no row locks; there the single writer gives the same guarantee.
func (s *Store) LockMatch(ctx context.Context, id string) (*models.Match, error) {
	var match models.Match
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&match).Error
	if err != nil {
		return nil, translate(err)
	}
	return &match, nil
}

func (s *Store) UpdateMatch(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Match{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMatch removes the match and its roster
func (s *Store) DeleteMatch(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx *Store) error {
		if err := tx.db.WithContext(ctx).Where("match_id = ?", id).Delete(&models.MatchParticipant{}).Error; err != nil {
			return err
		}
		res := tx.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Match{})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *Store) AddParticipant(ctx context.Context, matchID, userID string) error {
	row := models.MatchParticipant{MatchID: matchID, UserID: userID}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

// RemoveParticipant reports whether a roster row was deleted
func (s *Store) RemoveParticipant(ctx context.Context, matchID, userID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Delete(&models.MatchParticipant{})
	return res.RowsAffected > 0, res.Error
}

func (s *Store) CountParticipants(ctx context.Context, matchID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MatchParticipant{}).Where("match_id = ?", matchID).Count(&count).Error
	return int(count), err
}

func (s *Store) IsParticipant(ctx context.Context, matchID, userID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.MatchParticipant{}).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		Count(&count).Error
	return count > 0, err
}

// ParticipantIDs lists the roster in join order
func (s *Store) ParticipantIDs(ctx context.Context, matchID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.MatchParticipant{}).
		Where("match_id = ?", matchID).
		Order("created_at, user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

// ParticipantCounts returns the roster size of each match
func (s *Store) ParticipantCounts(ctx context.Context, matchIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		MatchID string
		Count   int
	}
	err := s.db.WithContext(ctx).
		Model(&models.MatchParticipant{}).
		Select("match_id, COUNT(*) AS count").
		Where("match_id IN ?", matchIDs).
		Group("match_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.MatchID] = r.Count
	}
	return out, nil
}

// ParticipatingIn returns the subset of matchIDs the user is on the roster of
func (s *Store) ParticipatingIn(ctx context.Context, userID string, matchIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if userID == "" || len(matchIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.MatchParticipant{}).
		Where("user_id = ? AND match_id IN ?", userID, matchIDs).
		Pluck("match_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// FindMatches lists matches ordered by match day ascending
func (s *Store) FindMatches(ctx context.Context, q MatchQuery) ([]models.Match, error) {
	tx := s.db.WithContext(ctx).Model(&models.Match{})

	if !q.From.IsZero() {
		tx = tx.Where("match_day >= ?", q.From)
	}
	if !q.To.IsZero() {
		tx = tx.Where("match_day < ?", q.To)
	}
	if q.Region != "" {
		tx = tx.Where("region = ?", q.Region)
	}
	if q.SportsTypeID != 0 {
		tx = tx.Where("sports_type_id = ?", q.SportsTypeID)
	}
	if q.TierValue != "" {
		tx = tx.Where("tier_id IN (?)", s.db.Model(&models.Tier{}).Select("id").Where("value = ?", q.TierValue))
	}
	tx = whereKeywords(tx, q.Keywords)

	var matches []models.Match
	err := tx.Order("match_day ASC, id ASC").Find(&matches).Error
	return matches, err
}

// whereKeywords requires every keyword to prefix a word of the title or content.
func whereKeywords(tx *gorm.DB, keywords []string) *gorm.DB {
	for _, kw := range keywords {
		kw = escapeLike(strings.ToLower(kw))
		prefix, inner := kw+"%", "% "+kw+"%"
		tx = tx.Where(
			"(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(content) LIKE ? ESCAPE '\\' OR LOWER(content) LIKE ? ESCAPE '\\')",
			prefix, inner, prefix, inner,
		)
	}
	return tx
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// MatchesOfParticipant lists the user's matches whose match day is after (future=true) or before now
func (s *Store) MatchesOfParticipant(ctx context.Context, userID string, now time.Time, future bool) ([]models.Match, error) {
	tx := s.db.WithContext(ctx).
		Joins("JOIN match_participants mp ON mp.match_id = matches.id").
		Where("mp.user_id = ?", userID)
	if future {
		tx = tx.Where("matches.match_day > ?", now).Order("matches.match_day ASC")
	} else {
		tx = tx.Where("matches.match_day <= ?", now).Order("matches.match_day DESC")
	}
	var matches []models.Match
	err := tx.Find(&matches).Error
	return matches, err
}

// LatestFinishedMatch returns the most recent past match the user took part in
func (s *Store) LatestFinishedMatch(ctx context.Context, userID string, now time.Time) (*models.Match, error) {
	var match models.Match
	err := s.db.WithContext(ctx).
		Joins("JOIN match_participants mp ON mp.match_id = matches.id").
		Where("mp.user_id = ? AND matches.match_day < ?", userID, now).
		Order("matches.match_day DESC").
		First(&match).Error
	if err != nil {
		return nil, translate(err)
	}
	return &match, nil
}
