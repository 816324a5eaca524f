package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportsmatch/internal/apperr"
	"sportsmatch/internal/auth"
	"sportsmatch/internal/models"
	"sportsmatch/internal/repository"

	"github.com/rs/zerolog"
)

// NicknameCooldown is the minimum time between two nickname changes.
const NicknameCooldown = 30 * 24 * time.Hour

// UserService handles accounts, profiles and the per-user match views.
type UserService struct {
	store   *repository.Store
	matches *MatchService
	tokens  TokenIssuer
	kakao   ExternalAuth
	images  ImageStorage
	newID   IDGenerator
	now     func() time.Time
	log     zerolog.Logger
}

// NewUserService creates the account service. kakao and images may be nil
// when the provider or object storage is not configured.
func NewUserService(
	store *repository.Store,
	matches *MatchService,
	tokens TokenIssuer,
	kakao ExternalAuth,
	images ImageStorage,
	newID IDGenerator,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		store:   store,
		matches: matches,
		tokens:  tokens,
		kakao:   kakao,
		images:  images,
		newID:   newID,
		now:     time.Now,
		log:     log.With().Str("component", "user_service").Logger(),
	}
}

// SignUp registers an email account holding the beginner tier of every sport.
func (s *UserService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error) {
	if _, err := s.store.FindUserByEmail(ctx, req.Email); err == nil {
		return nil, apperr.ErrDuplicateUser
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	email := req.Email
	user := &models.User{ID: id, Email: &email, PasswordHash: &hash, Provider: models.ProviderEmail}

	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.AssignBeginnerTiers(ctx, user.ID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user", user.ID).Msg("user signed up")
	return user, nil
}

// SignIn checks an email/password pair and issues an access token.
func (s *UserService) SignIn(ctx context.Context, req models.SignInRequest) (*models.SignInResponse, error) {
	user, err := s.store.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrInvalidCredential
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user.PasswordHash == nil {
		return nil, apperr.ErrInvalidCredential
	}

	ok, err := auth.CheckPassword(req.Password, *user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrInvalidCredential
	}
	return s.issue(user)
}

func (s *UserService) issue(user *models.User) (*models.SignInResponse, error) {
	token, expiresAt, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &models.SignInResponse{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// KakaoAuthURL returns the provider consent page for state.
func (s *UserService) KakaoAuthURL(state string) (string, error) {
	if s.kakao == nil {
		return "", apperr.ErrExternalAuthFailed.WithMessage("kakao sign-in is not configured")
	}
	return s.kakao.AuthCodeURL(state), nil
}

// SignInKakao completes the OAuth flow. The provider subject is the user id;
// first sign-in creates the account.
func (s *UserService) SignInKakao(ctx context.Context, code string) (*models.SignInResponse, error) {
	if s.kakao == nil {
		return nil, apperr.ErrExternalAuthFailed.WithMessage("kakao sign-in is not configured")
	}

	subject, err := s.kakao.Exchange(ctx, code)
	if err != nil {
		return nil, apperr.ErrExternalAuthFailed.Wrap(err)
	}

	user := &models.User{ID: subject, Provider: models.ProviderKakao}
	var created bool
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		if created, err = tx.UpsertUser(ctx, user); err != nil {
			return err
		}
		if !created {
			return nil
		}
		return tx.AssignBeginnerTiers(ctx, user.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert kakao user: %w", err)
	}

	stored, err := s.store.FindUserByID(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("load kakao user: %w", err)
	}
	if created {
		s.log.Info().Str("user", subject).Msg("kakao user signed up")
	}
	return s.issue(stored)
}

// CreateProfile creates the user's single profile; img is optional.
func (s *UserService) CreateProfile(ctx context.Context, userID string, req models.CreateProfileRequest, img *models.Image) (*models.UserProfile, error) {
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if _, err := s.store.FindProfile(ctx, userID); err == nil {
		return nil, apperr.ErrDuplicateProfile
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if err := s.ensureFree(ctx, "phone_number", req.PhoneNumber, userID, apperr.ErrDuplicatePhoneNumber); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, "nickname", req.Nickname, userID, apperr.ErrDuplicateNickname); err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		UserID:        userID,
		Nickname:      req.Nickname,
		PhoneNumber:   req.PhoneNumber,
		Gender:        req.Gender,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		OneLiner:      req.OneLiner,
	}

	if img != nil {
		url, err := s.upload(ctx, userID, *img)
		if err != nil {
			return nil, err
		}
		profile.ImageURL = &url
	}

	if err := s.store.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrDuplicateProfile
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.store.FindProfile(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// EditProfile applies a partial update. A new nickname must be free and the
// previous change must be at least NicknameCooldown old.
func (s *UserService) EditProfile(ctx context.Context, userID string, req models.EditProfileRequest, img *models.Image) (*models.UserProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updates := make(map[string]interface{})

	if req.Nickname != nil && *req.Nickname != profile.Nickname {
		if profile.NicknameUpdatedAt != nil && now.Sub(*profile.NicknameUpdatedAt) < NicknameCooldown {
			return nil, apperr.ErrInvalidNicknameChange
		}
		if err := s.ensureFree(ctx, "nickname", *req.Nickname, userID, apperr.ErrDuplicateNickname); err != nil {
			return nil, err
		}
		updates["nickname"] = *req.Nickname
		updates["nickname_updated_at"] = now
	}
	if req.PhoneNumber != nil && *req.PhoneNumber != profile.PhoneNumber {
		if err := s.ensureFree(ctx, "phone_number", *req.PhoneNumber, userID, apperr.ErrDuplicatePhoneNumber); err != nil {
			return nil, err
		}
		updates["phone_number"] = *req.PhoneNumber
	}
	if req.Gender != nil {
		updates["gender"] = *req.Gender
	}
	if req.BankName != nil {
		updates["bank_name"] = *req.BankName
	}
	if req.AccountNumber != nil {
		updates["account_number"] = *req.AccountNumber
	}
	if req.OneLiner != nil {
		updates["one_liner"] = *req.OneLiner
	}
	if img != nil {
		url, err := s.upload(ctx, userID, *img)
		if err != nil {
			return nil, err
		}
		updates["image_url"] = url
	}

	if err := s.store.UpdateProfile(ctx, userID, updates); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *UserService) ensureFree(ctx context.Context, column, value, userID string, conflict *apperr.Error) error {
	taken, err := s.store.ProfileExists(ctx, column, value, userID)
	if err != nil {
		return fmt.Errorf("check %s: %w", column, err)
	}
	if taken {
		return conflict
	}
	return nil
}

func (s *UserService) upload(ctx context.Context, userID string, img models.Image) (string, error) {
	if s.images == nil {
		return "", apperr.ErrStorageUnavailable
	}
	url, err := s.images.UploadImage(ctx, "profile-"+userID, img)
	if err != nil {
		return "", fmt.Errorf("upload profile image: %w", err)
	}
	return url, nil
}

// GetTiers lists the user's tier in every sport.
func (s *UserService) GetTiers(ctx context.Context, userID string) ([]models.UserTierView, error) {
	tiers, err := s.store.UserTiers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load tiers: %w", err)
	}
	return tiers, nil
}

// AddFavoriteSports adds sports by name to the user's liked list and returns the full list.
func (s *UserService) AddFavoriteSports(ctx context.Context, userID string, names []string) ([]models.SportsType, error) {
	unique := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			unique = append(unique, n)
		}
	}

	sports, err := s.store.FindSportsByNames(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("load sports types: %w", err)
	}
	if len(sports) != len(unique) {
		return nil, apperr.ErrSportTypeNotFound
	}

	ids := make([]int, 0, len(sports))
	for _, sp := range sports {
		ids = append(ids, sp.ID)
	}
	if err := s.store.AddLikedSports(ctx, userID, ids); err != nil {
		return nil, fmt.Errorf("add liked sports: %w", err)
	}
	return s.store.LikedSports(ctx, userID)
}

// AppliedMatches lists the upcoming matches the user is on the roster of.
func (s *UserService) AppliedMatches(ctx context.Context, userID string) ([]models.MatchView, error) {
	return s.participantMatches(ctx, userID, true)
}

// ParticipatedMatches lists the user's matches that already took place.
func (s *UserService) ParticipatedMatches(ctx context.Context, userID string) ([]models.MatchView, error) {
	return s.participantMatches(ctx, userID, false)
}

func (s *UserService) participantMatches(ctx context.Context, userID string, future bool) ([]models.MatchView, error) {
	matches, err := s.store.MatchesOfParticipant(ctx, userID, s.now().UTC(), future)
	if err != nil {
		return nil, fmt.Errorf("load user matches: %w", err)
	}
	return s.matches.enrich(ctx, userID, matches)
}

// LatestMatch returns the user's most recent finished match and whether they rated it.
func (s *UserService) LatestMatch(ctx context.Context, userID string) (*models.LatestMatchResponse, error) {
	match, err := s.store.LatestFinishedMatch(ctx, userID, s.now().UTC())
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrLatestMatchNotFound
		}
		return nil, fmt.Errorf("load latest match: %w", err)
	}

	rated, err := s.store.HasRated(ctx, userID, match.ID)
	if err != nil {
		return nil, fmt.Errorf("check rated: %w", err)
	}
	return &models.LatestMatchResponse{Match: match, HasRated: rated}, nil
}

// MatchRates lists the ratings the user received in a match.
func (s *UserService) MatchRates(ctx context.Context, userID, matchID string) ([]models.ReceivedRate, error) {
	if _, err := s.store.FindMatch(ctx, matchID); err != nil {
		if isNotFound(err) {
			return nil, apperr.ErrMatchNotFound
		}
		return nil, fmt.Errorf("load match: %w", err)
	}

	joined, err := s.store.IsParticipant(ctx, matchID, userID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !joined {
		return nil, apperr.ErrParticipantNotFound
	}

	rates, err := s.store.ReceivedRates(ctx, userID, matchID)
	if err != nil {
		return nil, fmt.Errorf("load rates: %w", err)
	}
	return rates, nil
}
