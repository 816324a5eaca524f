package models

import (
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderBoth   Gender = "both"
)

// Accepts reports whether a player of gender g may join a match restricted to m.
func (m Gender) Accepts(g Gender) bool {
	return m == GenderBoth || m == g
}

const (
	ProviderEmail = "email"
	ProviderKakao = "kakao"
)

// User is an account. Email and PasswordHash are nil for externally authenticated accounts.
type User struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Email        *string   `gorm:"uniqueIndex" json:"email,omitempty"`
	PasswordHash *string   `json:"-"`
	Provider     string    `gorm:"not null" json:"provider"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

type UserProfile struct {
	UserID            string     `gorm:"primaryKey" json:"userId"`
	Nickname          string     `gorm:"uniqueIndex;not null" json:"nickname"`
	PhoneNumber       string     `gorm:"uniqueIndex;not null" json:"phoneNumber"`
	Gender            Gender     `gorm:"not null" json:"gender"`
	BankName          string     `json:"bankName"`
	AccountNumber     string     `json:"accountNumber"`
	OneLiner          string     `json:"oneLiner"`
	ImageURL          *string    `json:"imageUrl,omitempty"`
	NicknameUpdatedAt *time.Time `json:"nicknameUpdatedAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}

// UserLikedSport is a row of the liked-sports join table
type UserLikedSport struct {
	UserID       string `gorm:"primaryKey"`
	SportsTypeID int    `gorm:"primaryKey"`
}

func (UserLikedSport) TableName() string {
	return "user_liked_sports"
}

// SignUpRequest represents the request payload for email sign-up
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72,password"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateProfileRequest is sent as multipart form fields next to an optional image.
type CreateProfileRequest struct {
	Gender        Gender `json:"gender" form:"gender" validate:"required,oneof=male female"`
	PhoneNumber   string `json:"phoneNumber" form:"phoneNumber" validate:"required,min=11,max=20"`
	BankName      string `json:"bankName" form:"bankName" validate:"required,min=2"`
	AccountNumber string `json:"accountNumber" form:"accountNumber" validate:"required,min=8"`
	Nickname      string `json:"nickname" form:"nickname" validate:"required,min=2,max=20"`
	OneLiner      string `json:"oneLiner" form:"oneLiner" validate:"max=200"`
}

type EditProfileRequest struct {
	Gender        *Gender `json:"gender" form:"gender" validate:"omitempty,oneof=male female"`
	PhoneNumber   *string `json:"phoneNumber" form:"phoneNumber" validate:"omitempty,min=11,max=20"`
	BankName      *string `json:"bankName" form:"bankName" validate:"omitempty,min=2"`
	AccountNumber *string `json:"accountNumber" form:"accountNumber" validate:"omitempty,min=8"`
	Nickname      *string `json:"nickname" form:"nickname" validate:"omitempty,min=2,max=20"`
	OneLiner      *string `json:"oneLiner" form:"oneLiner" validate:"omitempty,max=200"`
}

type EditFavoriteRequest struct {
	SportsTypes []string `json:"sportsType" validate:"required,min=1,dive,required"`
}

// Image is an uploaded profile picture.
type Image struct {
	Data        []byte
	ContentType string
}

type SignInResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        *User     `json:"user"`
}

type UserTierView struct {
	TierID     string         `json:"tierId"`
	Value      TierValue      `json:"value"`
	SportsType SportsTypeView `json:"sportsType"`
}

type LatestMatchResponse struct {
	Match    *Match `json:"match"`
	HasRated bool   `json:"hasRated"`
}

type ReceivedRate struct {
	RaterID string `json:"raterId"`
	Value   int    `json:"value"`
}
