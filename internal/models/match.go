package models

import (
	"time"
)

// Match is a hosted, capacity-bounded pickup game listing.
type Match struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	HostID       string    `gorm:"not null;index" json:"hostId"`
	SportsTypeID int       `gorm:"not null" json:"sportsTypeId"`
	TierID       string    `gorm:"not null" json:"tierId"`
	Title        string    `gorm:"not null" json:"title"`
	Content      string    `gorm:"not null" json:"content"`
	Gender       Gender    `gorm:"not null" json:"gender"`
	Capability   int       `gorm:"not null" json:"capability"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	PlaceName    string    `json:"placeName"`
	Region       string    `gorm:"index" json:"region"`
	Address      string    `json:"address"`
	MatchDay     time.Time `gorm:"not null;index" json:"matchDay"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Match) TableName() string {
	return "matches"
}

// MatchParticipant is a roster row. The host holds one from creation on.
type MatchParticipant struct {
	MatchID   string    `gorm:"primaryKey"`
	UserID    string    `gorm:"primaryKey"`
	CreatedAt time.Time
}

func (MatchParticipant) TableName() string {
	return "match_participants"
}

// Rating is an append-only peer rating; (user_id, rater_id, match_id) is unique.
type Rating struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null" json:"userId"`
	RaterID   string    `gorm:"not null" json:"raterId"`
	MatchID   string    `gorm:"not null" json:"matchId"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Rating) TableName() string {
	return "ratings"
}

// CreateMatchRequest represents the request payload for hosting a match
type CreateMatchRequest struct {
	SportsType string    `json:"sportsType" validate:"required"`
	Title      string    `json:"title" validate:"required,min=5,max=100"`
	Content    string    `json:"content" validate:"required,min=10,max=2000"`
	Gender     Gender    `json:"gender" validate:"required,oneof=male female both"`
	Capability int       `json:"capability" validate:"required,min=2,max=100"`
	Latitude   float64   `json:"latitude" validate:"latitude"`
	Longitude  float64   `json:"longitude" validate:"longitude"`
	PlaceName  string    `json:"placeName" validate:"required,min=1"`
	Region     string    `json:"region" validate:"required,min=2"`
	Address    string    `json:"address" validate:"required,min=5"`
	MatchDay   time.Time `json:"matchDay" validate:"required"`
}

// UpdateMatchRequest is a partial update; nil fields are left untouched.
type UpdateMatchRequest struct {
	SportsType *string    `json:"sportsType" validate:"omitempty,min=1"`
	Title      *string    `json:"title" validate:"omitempty,min=5,max=100"`
	Content    *string    `json:"content" validate:"omitempty,min=10,max=2000"`
	Gender     *Gender    `json:"gender" validate:"omitempty,oneof=male female both"`
	Capability *int       `json:"capability" validate:"omitempty,min=2,max=100"`
	Latitude   *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64   `json:"longitude" validate:"omitempty,longitude"`
	PlaceName  *string    `json:"placeName" validate:"omitempty,min=1"`
	Region     *string    `json:"region" validate:"omitempty,min=2"`
	Address    *string    `json:"address" validate:"omitempty,min=5"`
	MatchDay   *time.Time `json:"matchDay"`
}

// MatchFilter holds the list query. Date is a local calendar day (YYYY-MM-DD).
type MatchFilter struct {
	Date       string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Region     string `query:"region"`
	SportsType string `query:"sportsType"`
	Tier       string `query:"tier"`
	Keywords   string `query:"keywords"`
}

type RateItem struct {
	ParticipantID string `json:"participantId" validate:"required"`
	Value         int    `json:"value"`
}

type RateRequest struct {
	Ratings []RateItem `json:"ratings" validate:"required,min=1,dive"`
}

// MatchView is a match enriched for listing
type MatchView struct {
	Match
	SportsType    string    `json:"sportsType"`
	Tier          TierValue `json:"tier"`
	Applicants    int       `json:"applicants"`
	Participating bool      `json:"participating"`
}

type ParticipantView struct {
	UserID   string  `json:"userId"`
	Nickname string  `json:"nickname"`
	Gender   Gender  `json:"gender"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

type MatchDetail struct {
	MatchView
	Participants []ParticipantView `json:"participants"`
}

type CreateMatchResponse struct {
	ID     string `json:"id"`
	HostID string `json:"hostId"`
}

type ParticipationResponse struct {
	MatchID       string `json:"matchId"`
	Participating bool   `json:"participating"`
	Applicants    int    `json:"applicants"`
}

// RatingResult reports the outcome of one item of a rating batch
type RatingResult struct {
	ParticipantID string     `json:"participantId"`
	Rating        *Rating    `json:"rating,omitempty"`
	Error         *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
