package models

// TierValue is the per-sport skill bracket. Order: beginner < amateur < semi-pro < pro < master.
type TierValue string

const (
	TierBeginner TierValue = "beginner"
	TierAmateur  TierValue = "amateur"
	TierSemiPro  TierValue = "semi-pro"
	TierPro      TierValue = "pro"
	TierMaster   TierValue = "master"
)

// TierValues lists every tier from lowest to highest.
var TierValues = []TierValue{TierBeginner, TierAmateur, TierSemiPro, TierPro, TierMaster}

// Rank returns the position of v in TierValues, or -1.
func (v TierValue) Rank() int {
	for i, t := range TierValues {
		if t == v {
			return i
		}
	}
	return -1
}

func (v TierValue) Valid() bool { return v.Rank() >= 0 }

type SportsType struct {
	ID   int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
	Rule string `json:"rule"`
}

func (SportsType) TableName() string {
	return "sports_types"
}

type Tier struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Value        TierValue `gorm:"not null" json:"value"`
	Description  string    `json:"description"`
	SportsTypeID int       `gorm:"not null" json:"sportsTypeId"`
}

func (Tier) TableName() string {
	return "tiers"
}

// UserTier associates a user with exactly one tier per sport. The primary key
// (user_id, sports_type_id) enforces the one-tier-per-sport rule in storage.
type UserTier struct {
	UserID       string `gorm:"primaryKey"`
	SportsTypeID int    `gorm:"primaryKey"`
	TierID       string `gorm:"not null"`
}

func (UserTier) TableName() string {
	return "user_tiers"
}

type SportsTypeView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type TierInfo struct {
	Value       TierValue `json:"value"`
	Description string    `json:"description"`
}

// RankedUser is one row of a sport's ranking produced by the tier engine
type RankedUser struct {
	UserID  string    `json:"userId"`
	Average float64   `json:"average"`
	Tier    TierValue `json:"tier"`
}

// RankingEntry is a ranked row served from the ranking cache
type RankingEntry struct {
	Rank    int       `json:"rank"`
	UserID  string    `json:"userId"`
	Average float64   `json:"average"`
	Tier    TierValue `json:"tier"`
}

type RankingResponse struct {
	SportsType string         `json:"sportsType"`
	Data       []RankingEntry `json:"data"`
	Offset     int            `json:"offset"`
	Limit      int            `json:"limit"`
	Total      int64          `json:"total"`
}

type RecalculationSummary struct {
	Sports   int    `json:"sports"`
	Ranked   int    `json:"ranked"`
	Changed  int    `json:"changed"`
	Failed   int    `json:"failed"`
	Duration string `json:"duration"`
	Skipped  bool   `json:"skipped,omitempty"`
}
