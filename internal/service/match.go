package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sportsmatch/internal/apperr"
	"sportsmatch/internal/events"
	"sportsmatch/internal/models"
	"sportsmatch/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// defaultListWindow is how far ahead an undated listing looks
	defaultListWindow = 14 * 24 * time.Hour

	// a participant may leave only while the roster is below 80% of capability
	cancelLockNumerator   = 4
	cancelLockDenominator = 5
)

// MatchService owns matches, their rosters and the post-match rating ledger.
type MatchService struct {
	store  *repository.Store
	events emitter
	newID  IDGenerator
	loc    *time.Location
	now    func() time.Time
	log    zerolog.Logger
}

// NewMatchService creates a match service. loc is the zone calendar-day filters are read in.
func NewMatchService(store *repository.Store, publisher events.Publisher, newID IDGenerator, loc *time.Location, log zerolog.Logger) *MatchService {
	if loc == nil {
		loc = time.UTC
	}
	log = log.With().Str("component", "match_service").Logger()
	return &MatchService{
		store:  store,
		events: emitter{publisher: publisher, log: log},
		newID:  newID,
		loc:    loc,
		now:    time.Now,
		log:    log,
	}
}

// Create hosts a new match at the host's own tier in the sport and puts the
// host on the roster.
func (s *MatchService) Create(ctx context.Context, hostID string, req models.CreateMatchRequest) (*models.CreateMatchResponse, error) {
	if req.Capability < 2 {
		return nil, apperr.ErrInvalidCapability
	}
	if !req.MatchDay.After(s.now()) {
		return nil, apperr.ErrMatchDayNotInFuture
	}

	if _, err := s.store.FindProfile(ctx, hostID); err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrProfileNotFound
		}
		return nil, fmt.Errorf("load host profile: %w", err)
	}

	sport, err := s.store.FindSportByName(ctx, req.SportsType)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrSportTypeNotFound
		}
		return nil, fmt.Errorf("load sports type: %w", err)
	}

	tier, err := s.store.FindUserTier(ctx, hostID, sport.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrTierNotFound
		}
		return nil, fmt.Errorf("load host tier: %w", err)
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate match id: %w", err)
	}

	match := &models.Match{
		ID:           id,
		HostID:       hostID,
		SportsTypeID: sport.ID,
		TierID:       tier.ID,
		Title:        req.Title,
		Content:      req.Content,
		Gender:       req.Gender,
		Capability:   req.Capability,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		PlaceName:    req.PlaceName,
		Region:       req.Region,
		Address:      req.Address,
		MatchDay:     req.MatchDay.UTC(),
	}

	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := tx.CreateMatch(ctx, match); err != nil {
			return err
		}
		return tx.AddParticipant(ctx, match.ID, hostID)
	})
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}

	s.log.Info().Str("match", match.ID).Str("host", hostID).Str("sport", sport.Name).Msg("match created")
	s.events.emit(ctx, events.MatchCreated, match.ID, match)

	return &models.CreateMatchResponse{ID: match.ID, HostID: hostID}, nil
}

// Edit applies a partial update. Only the host may edit.
func (s *MatchService) Edit(ctx context.Context, userID, matchID string, req models.UpdateMatchRequest) (*models.Match, error) {
	var updated *models.Match

	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		match, err := tx.LockMatch(ctx, matchID)
		if err != nil {
			if isNotFound(err) {
				return apperr.ErrMatchNotFound
			}
			return err
		}
		if match.HostID != userID {
			return apperr.ErrEditForbidden
		}

		updates, err := s.matchUpdates(ctx, tx, match, req)
		if err != nil {
			return err
		}
		if err := tx.UpdateMatch(ctx, matchID, updates); err != nil {
			return err
		}

		updated, err = tx.FindMatch(ctx, matchID)
		return err
	})
	if err != nil {
		return nil, s.wrap(err, "edit match")
	}

	s.events.emit(ctx, events.MatchUpdated, matchID, updated)
	return updated, nil
}

func (s *MatchService) matchUpdates(ctx context.Context, tx *repository.Store, match *models.Match, req models.UpdateMatchRequest) (map[string]interface{}, error) {
	updates := make(map[string]interface{})

	if req.SportsType != nil {
		sport, err := tx.FindSportByName(ctx, *req.SportsType)
		if err != nil {
			if isNotFound(err) {
				return nil, apperr.ErrSportTypeNotFound
			}
			return nil, err
		}
		if sport.ID != match.SportsTypeID {
			// the match follows the host's bracket in the new sport
			tier, err := tx.FindUserTier(ctx, match.HostID, sport.ID)
			if err != nil {
				if isNotFound(err) {
					return nil, apperr.ErrTierNotFound
				}
				return nil, err
			}
			updates["sports_type_id"] = sport.ID
			updates["tier_id"] = tier.ID
		}
	}
	if req.Capability != nil {
		if *req.Capability < 2 {
			return nil, apperr.ErrInvalidCapability
		}
		count, err := tx.CountParticipants(ctx, match.ID)
		if err != nil {
			return nil, err
		}
		if *req.Capability < count {
			return nil, apperr.ErrCapabilityBelowRoster
		}
		updates["capability"] = *req.Capability
	}
	if req.MatchDay != nil {
		if !req.MatchDay.After(s.now()) {
			return nil, apperr.ErrMatchDayNotInFuture
		}
		updates["match_day"] = req.MatchDay.UTC()
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}
	if req.PlaceName != nil {
		updates["place_name"] = *req.PlaceName
	}
	if req.Region != nil {
		updates["region"] = *req.Region
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	return updates, nil
}

// Delete removes a match and its roster. Only the host may delete, and a
// match that has collected ratings is kept.
func (s *MatchService) Delete(ctx context.Context, userID, matchID string) error {
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		match, err := tx.LockMatch(ctx, matchID)
		if err != nil {
			if isNotFound(err) {
				return apperr.ErrMatchNotFound
			}
			return err
		}
		if match.HostID != userID {
			return apperr.ErrEditForbidden
		}

		rated, err := tx.CountMatchRatings(ctx, matchID)
		if err != nil {
			return err
		}
		if rated > 0 {
			return apperr.ErrMatchHasRatings
		}
		// Rate does not take the row lock, so a rating can land after the count
		if err := tx.DeleteMatch(ctx, matchID); err != nil {
			if errors.Is(err, repository.ErrReferenced) {
				return apperr.ErrMatchHasRatings
			}
			return err
		}
		return nil
	})
	if err != nil {
		return s.wrap(err, "delete match")
	}

	s.log.Info().Str("match", matchID).Str("host", userID).Msg("match deleted")
	s.events.emit(ctx, events.MatchDeleted, matchID, map[string]string{"matchId": matchID})
	return nil
}

// Participate toggles the user's place on the roster: a participant leaves,
// anyone else joins. The host cannot toggle, and nobody can once the match
// has started. The match row stays locked from the eligibility checks
// through the roster write, so concurrent joins cannot overshoot capability.
func (s *MatchService) Participate(ctx context.Context, userID, matchID string) (*models.ParticipationResponse, error) {
	var resp models.ParticipationResponse

	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		match, err := tx.LockMatch(ctx, matchID)
		if err != nil {
			if isNotFound(err) {
				return apperr.ErrMatchNotFound
			}
			return err
		}
		// the host stays on the roster, and a started match only takes ratings
		if match.HostID == userID {
			return apperr.ErrSelfParticipation
		}
		if !match.MatchDay.After(s.now()) {
			return apperr.ErrParticipationExpired
		}

		tier, err := tx.FindUserTier(ctx, userID, match.SportsTypeID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if tier == nil || tier.ID != match.TierID {
			return apperr.ErrTierMismatch
		}

		joined, err := tx.IsParticipant(ctx, matchID, userID)
		if err != nil {
			return err
		}
		count, err := tx.CountParticipants(ctx, matchID)
		if err != nil {
			return err
		}

		if joined {
			if cancelLocked(count, match.Capability) {
				return apperr.ErrCancelLocked
			}
			if _, err := tx.RemoveParticipant(ctx, matchID, userID); err != nil {
				return err
			}
			resp = models.ParticipationResponse{MatchID: matchID, Participating: false, Applicants: count - 1}
			return nil
		}

		if err := s.checkJoin(ctx, tx, match, userID, count); err != nil {
			return err
		}
		if err := tx.AddParticipant(ctx, matchID, userID); err != nil {
			return err
		}
		resp = models.ParticipationResponse{MatchID: matchID, Participating: true, Applicants: count + 1}
		return nil
	})
	if err != nil {
		return nil, s.wrap(err, "participate")
	}

	eventType := events.MatchLeft
	if resp.Participating {
		eventType = events.MatchJoined
	}
	s.events.emit(ctx, eventType, matchID, map[string]interface{}{
		"matchId":    matchID,
		"userId":     userID,
		"applicants": resp.Applicants,
	})
	return &resp, nil
}

func (s *MatchService) checkJoin(ctx context.Context, tx *repository.Store, match *models.Match, userID string, count int) error {
	if count >= match.Capability {
		return apperr.ErrParticipationLimit
	}

	profile, err := tx.FindProfile(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return apperr.ErrProfileNotFound
		}
		return err
	}
	if !match.Gender.Accepts(profile.Gender) {
		return apperr.ErrGenderMismatch
	}
	return nil
}

// cancelLocked reports whether count/capability >= 0.8
func cancelLocked(count, capability int) bool {
	return count*cancelLockDenominator >= capability*cancelLockNumerator
}

// Find lists matches matching filter, enriched for viewerID (empty when anonymous).
func (s *MatchService) Find(ctx context.Context, viewerID string, filter models.MatchFilter) ([]models.MatchView, error) {
	q := repository.MatchQuery{
		Region:   strings.TrimSpace(filter.Region),
		Keywords: strings.Fields(filter.Keywords),
	}

	from, to, err := s.dateWindow(filter.Date)
	if err != nil {
		return nil, err
	}
	q.From, q.To = from, to

	if filter.SportsType != "" {
		sport, err := s.store.FindSportByName(ctx, filter.SportsType)
		if err != nil {
			if isNotFound(err) {
				return []models.MatchView{}, nil
			}
			return nil, fmt.Errorf("load sports type: %w", err)
		}
		q.SportsTypeID = sport.ID
	}
	if filter.Tier != "" {
		value := models.TierValue(filter.Tier)
		if !value.Valid() {
			return []models.MatchView{}, nil
		}
		q.TierValue = value
	}

	matches, err := s.store.FindMatches(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find matches: %w", err)
	}
	return s.enrich(ctx, viewerID, matches)
}

// Search runs the keyword search alone over every match.
func (s *MatchService) Search(ctx context.Context, viewerID, keywords string) ([]models.MatchView, error) {
	words := strings.Fields(keywords)
	if len(words) == 0 {
		return []models.MatchView{}, nil
	}

	matches, err := s.store.FindMatches(ctx, repository.MatchQuery{Keywords: words})
	if err != nil {
		return nil, fmt.Errorf("search matches: %w", err)
	}
	return s.enrich(ctx, viewerID, matches)
}

// dateWindow returns [from, to) in UTC. An empty date means the next two weeks;
// otherwise the local calendar day.
func (s *MatchService) dateWindow(date string) (time.Time, time.Time, error) {
	if date == "" {
		now := s.now().UTC()
		return now, now.Add(defaultListWindow), nil
	}

	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.ErrInvalidRequest.WithMessage("date must be YYYY-MM-DD")
	}
	return day.UTC(), day.AddDate(0, 0, 1).UTC(), nil
}

// FindMatch returns one match with its roster.
func (s *MatchService) FindMatch(ctx context.Context, viewerID, matchID string) (*models.MatchDetail, error) {
	match, err := s.store.FindMatch(ctx, matchID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrMatchNotFound
		}
		return nil, fmt.Errorf("load match: %w", err)
	}

	views, err := s.enrich(ctx, viewerID, []models.Match{*match})
	if err != nil {
		return nil, err
	}

	ids, err := s.store.ParticipantIDs(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	profiles, err := s.store.FindProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load participant profiles: %w", err)
	}

	participants := make([]models.ParticipantView, 0, len(ids))
	for _, id := range ids {
		p := models.ParticipantView{UserID: id}
		if profile, ok := profiles[id]; ok {
			p.Nickname = profile.Nickname
			p.Gender = profile.Gender
			p.ImageURL = profile.ImageURL
		}
		participants = append(participants, p)
	}

	return &models.MatchDetail{MatchView: views[0], Participants: participants}, nil
}

// enrich resolves sport and tier names, roster sizes and the viewer's
// participation for a page of matches.
func (s *MatchService) enrich(ctx context.Context, viewerID string, matches []models.Match) ([]models.MatchView, error) {
	views := make([]models.MatchView, 0, len(matches))
	if len(matches) == 0 {
		return views, nil
	}

	ids := make([]string, 0, len(matches))
	tierIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
		tierIDs = append(tierIDs, m.TierID)
	}

	var (
		counts        map[string]int
		participating map[string]bool
		tiers         map[string]models.Tier
		sports        []models.SportsType
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.store.ParticipantCounts(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		participating, err = s.store.ParticipatingIn(gctx, viewerID, ids)
		return err
	})
	g.Go(func() error {
		var err error
		tiers, err = s.store.TiersByID(gctx, tierIDs)
		return err
	})
	g.Go(func() error {
		var err error
		sports, err = s.store.ListSports(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich matches: %w", err)
	}

	sportNames := make(map[int]string, len(sports))
	for _, sp := range sports {
		sportNames[sp.ID] = sp.Name
	}

	for _, m := range matches {
		views = append(views, models.MatchView{
			Match:         m,
			SportsType:    sportNames[m.SportsTypeID],
			Tier:          tiers[m.TierID].Value,
			Applicants:    counts[m.ID],
			Participating: participating[m.ID],
		})
	}
	return views, nil
}

// wrap passes typed domain errors through and annotates everything else.
func (s *MatchService) wrap(err error, op string) error {
	if apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
