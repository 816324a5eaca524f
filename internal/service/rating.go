package service

import (
	"context"
	"errors"
	"fmt"

	"sportsmatch/internal/apperr"
	"sportsmatch/internal/events"
	"sportsmatch/internal/models"
	"sportsmatch/internal/repository"
)

// Rate records the rater's ratings of other participants once the match is
// over. Match-level preconditions fail the whole call; after that each item
// succeeds or fails on its own and the outcome of every item is returned in
// input order.
func (s *MatchService) Rate(ctx context.Context, raterID, matchID string, items []models.RateItem) ([]models.RatingResult, error) {
	if len(items) == 0 {
		return nil, apperr.ErrNoRatings
	}

	match, err := s.store.FindMatch(ctx, matchID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrMatchNotFound
		}
		return nil, fmt.Errorf("load match: %w", err)
	}
	if !s.now().After(match.MatchDay) {
		return nil, apperr.ErrMatchNotFinished
	}

	ids, err := s.store.ParticipantIDs(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	roster := make(map[string]bool, len(ids))
	for _, id := range ids {
		roster[id] = true
	}
	if !roster[raterID] {
		return nil, apperr.ErrRaterNotInMatch
	}

	results := make([]models.RatingResult, 0, len(items))
	for _, item := range items {
		result := models.RatingResult{ParticipantID: item.ParticipantID}

		rating, err := s.rateOne(ctx, roster, raterID, matchID, item)
		if err != nil {
			e := apperr.From(err)
			if e.Kind == apperr.KindInternal {
				s.log.Error().Err(err).Str("match", matchID).Str("ratee", item.ParticipantID).Msg("failed to store rating")
			}
			result.Error = &models.ErrorBody{Code: e.Code, Message: e.Message}
		} else {
			result.Rating = rating
			s.events.emit(ctx, events.RatingCreated, matchID, rating)
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *MatchService) rateOne(ctx context.Context, roster map[string]bool, raterID, matchID string, item models.RateItem) (*models.Rating, error) {
	if item.Value < 1 || item.Value > 5 {
		return nil, apperr.ErrInvalidRate
	}
	if !roster[item.ParticipantID] {
		return nil, apperr.ErrParticipantNotFound
	}
	if item.ParticipantID == raterID {
		return nil, apperr.ErrSelfRating
	}

	exists, err := s.store.RatingExists(ctx, item.ParticipantID, raterID, matchID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ErrAlreadyRated
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	rating := &models.Rating{
		ID:      id,
		UserID:  item.ParticipantID,
		RaterID: raterID,
		MatchID: matchID,
		Value:   item.Value,
	}
	if err := s.store.CreateRating(ctx, rating); err != nil {
		// a concurrent submission won the race to the unique key
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrAlreadyRated
		}
		return nil, err
	}
	return rating, nil
}
