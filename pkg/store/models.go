package store

import (
	"time"

	"gorm.io/datatypes"

	"aniflix/pkg/domain"
)

// GORM models used for persistence. Table names keep the collection names
// from the original data layout: show, watchlistitem, userprogress.

type ShowModel struct {
	ID          string                              `gorm:"primaryKey"`
	Title       string                              `gorm:"not null;index"`
	Description string                              `gorm:"not null"`
	Genres      datatypes.JSONSlice[string]         `gorm:"type:jsonb"`
	Type        string                              `gorm:"not null;index"`
	Year        *int
	Rating      *float64
	PosterURL   string
	BackdropURL string
	Tags        datatypes.JSONSlice[string]         `gorm:"type:jsonb"`
	Episodes    datatypes.JSONSlice[domain.Episode] `gorm:"type:jsonb"`
	CreatedAt   time.Time                           `gorm:"not null"`
}

func (ShowModel) TableName() string { return "show" }

type WatchlistItemModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	ShowID    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (WatchlistItemModel) TableName() string { return "watchlistitem" }

// UserProgressModel enforces the natural key: at most one row per
// (user_id, show_id).
type UserProgressModel struct {
	ID              string    `gorm:"primaryKey"`
	UserID          string    `gorm:"not null;uniqueIndex:idx_userprogress_key"`
	ShowID          string    `gorm:"not null;uniqueIndex:idx_userprogress_key"`
	EpisodeNumber   int       `gorm:"not null"`
	PositionSeconds int       `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (UserProgressModel) TableName() string { return "userprogress" }

func showToModel(s domain.Show) ShowModel {
	return ShowModel{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Genres:      datatypes.NewJSONSlice(s.Genres),
		Type:        string(s.Type),
		Year:        s.Year,
		Rating:      s.Rating,
		PosterURL:   s.PosterURL,
		BackdropURL: s.BackdropURL,
		Tags:        datatypes.NewJSONSlice(s.Tags),
		Episodes:    datatypes.NewJSONSlice(s.Episodes),
	}
}

func showFromModel(m ShowModel) domain.Show {
	show := domain.Show{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Genres:      []string(m.Genres),
		Type:        domain.ShowType(m.Type),
		Year:        m.Year,
		Rating:      m.Rating,
		PosterURL:   m.PosterURL,
		BackdropURL: m.BackdropURL,
		Tags:        []string(m.Tags),
		Episodes:    []domain.Episode(m.Episodes),
	}
	show.Normalize()
	return show
}

func watchlistItemToModel(w domain.WatchlistItem) WatchlistItemModel {
	return WatchlistItemModel{
		ID:     w.ID,
		UserID: w.UserID,
		ShowID: w.ShowID,
	}
}

func watchlistItemFromModel(m WatchlistItemModel) domain.WatchlistItem {
	return domain.WatchlistItem{
		ID:     m.ID,
		UserID: m.UserID,
		ShowID: m.ShowID,
	}
}

func progressFromModel(m UserProgressModel) domain.UserProgress {
	return domain.UserProgress{
		UserID:          m.UserID,
		ShowID:          m.ShowID,
		EpisodeNumber:   m.EpisodeNumber,
		PositionSeconds: m.PositionSeconds,
	}
}
