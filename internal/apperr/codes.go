package apperr

var ErrInternal = New(KindInternal, "INTERNAL_ERROR", "internal server error")

var ErrInvalidRequest = New(KindValidation, "INVALID_REQUEST", "invalid request")

// Match registry
var (
	ErrMatchNotFound         = New(KindNotFound, "MATCH_NOT_FOUND", "match not found")
	ErrSportTypeNotFound     = New(KindNotFound, "SPORT_TYPE_NOT_FOUND", "sports type not found")
	ErrTierNotFound          = New(KindNotFound, "TIER_NOT_FOUND", "no tier held for this sports type")
	ErrEditForbidden         = New(KindForbidden, "MATCH_EDIT_FORBIDDEN", "only the host can modify this match")
	ErrMatchHasRatings       = New(KindConflict, "MATCH_HAS_RATINGS", "a match that has ratings cannot be deleted")
	ErrTierMismatch          = New(KindValidation, "MATCH_TIER_MISMATCH", "your tier does not match this match")
	ErrCancelLocked          = New(KindConflict, "MATCH_CANCEL_LOCKED", "participation cannot be cancelled once the roster is 80% full")
	ErrSelfParticipation     = New(KindValidation, "MATCH_SELF_PARTICIPATION", "you cannot apply to a match you host")
	ErrParticipationExpired  = New(KindValidation, "MATCH_PARTICIPATION_EXPIRED", "the match has already started")
	ErrParticipationLimit    = New(KindConflict, "MATCH_PARTICIPATION_REACHED_LIMIT", "the match is full")
	ErrGenderMismatch        = New(KindValidation, "MATCH_GENDER_MISMATCH", "the match is restricted to another gender")
	ErrMatchDayNotInFuture   = New(KindValidation, "MATCH_INVALID_DATE", "match day must be in the future")
	ErrInvalidCapability     = New(KindValidation, "MATCH_INVALID_CAPABILITY", "capability must be at least 2")
	ErrCapabilityBelowRoster = New(KindConflict, "MATCH_CAPABILITY_BELOW_ROSTER", "capability cannot be lower than the current roster")
)

// Rating ledger
var (
	ErrMatchNotFinished    = New(KindValidation, "MATCH_NOT_FINISHED", "a match can be rated only after it has ended")
	ErrRaterNotInMatch     = New(KindForbidden, "RATER_NOT_IN_MATCH", "only participants can rate this match")
	ErrParticipantNotFound = New(KindNotFound, "USER_NOT_IN_PARTICIPANTS", "the rated user did not participate in this match")
	ErrSelfRating          = New(KindValidation, "MATCH_SELF_RATING", "you cannot rate yourself")
	ErrAlreadyRated        = New(KindConflict, "MATCH_ALREADY_RATED", "this participant has already been rated")
	ErrInvalidRate         = New(KindValidation, "INVALID_RATE", "rating must be between 1 and 5")
	ErrNoRatings           = New(KindValidation, "MINIMUM_RATERS_REQUIRED", "at least one rating is required")
)

// Identity and profile
var (
	ErrUserNotFound          = New(KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrProfileNotFound       = New(KindNotFound, "USER_PROFILE_NOT_FOUND", "create a profile first")
	ErrLatestMatchNotFound   = New(KindNotFound, "USER_LATEST_MATCH_NOT_FOUND", "no finished match found")
	ErrDuplicateUser         = New(KindConflict, "USER_DUPLICATE", "email already registered")
	ErrDuplicateProfile      = New(KindConflict, "USER_DUPLICATE_PROFILE", "profile already exists")
	ErrDuplicatePhoneNumber  = New(KindConflict, "USER_DUPLICATE_PHONE_NUMBER", "phone number already in use")
	ErrDuplicateNickname     = New(KindConflict, "USER_DUPLICATE_NICKNAME", "nickname already in use")
	ErrInvalidNicknameChange = New(KindForbidden, "USER_INVALID_NICKNAME_CHANGE", "nickname can be changed once every 30 days")
	ErrUnauthorized          = New(KindUnauthenticated, "USER_UNAUTHORIZED", "login required")
	ErrInvalidCredential     = New(KindUnauthenticated, "USER_INVALID_CREDENTIAL", "invalid email or password")
	ErrTokenExpired          = New(KindUnauthenticated, "TOKEN_EXPIRED", "access token expired")
	ErrStorageUnavailable    = New(KindInternal, "STORAGE_UNAVAILABLE", "image storage is not configured")
	ErrExternalAuthFailed    = New(KindUnauthenticated, "EXTERNAL_AUTH_FAILED", "external sign-in failed")
)
