package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// ShowType distinguishes the two supported catalog categories.
type ShowType string

const (
	TypeAnime   ShowType = "anime"
	TypeCartoon ShowType = "cartoon"
)

// ParseShowType reports whether s is a known show type.
func ParseShowType(s string) (ShowType, bool) {
	switch ShowType(strings.TrimSpace(s)) {
	case TypeAnime:
		return TypeAnime, true
	case TypeCartoon:
		return TypeCartoon, true
	default:
		return "", false
	}
}

// Episode is a single episode entry embedded in a show document.
type Episode struct {
	Number          int    `json:"number"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"duration_minutes"`
	VideoURL        string `json:"video_url,omitempty"`
}

// Show is a catalog entry. The ID is assigned by the store on creation and
// is immutable afterwards.
type Show struct {
	ID          string    `json:"_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Genres      []string  `json:"genres"`
	Type        ShowType  `json:"type"`
	Year        *int      `json:"year,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
	BackdropURL string    `json:"backdrop_url,omitempty"`
	Tags        []string  `json:"tags"`
	Episodes    []Episode `json:"episodes,omitempty"`
}

// Normalize fills defaults so a freshly decoded show serializes the same way
// a stored one does: empty type becomes "anime", nil lists become empty.
func (s *Show) Normalize() {
	if s.Type == "" {
		s.Type = TypeAnime
	}
	if s.Genres == nil {
		s.Genres = []string{}
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
}

// Validate checks field constraints and returns a ValidationError listing
// every violated field, or nil when the show is well formed.
func (s Show) Validate() error {
	var fields []FieldError
	if strings.TrimSpace(s.Title) == "" {
		fields = append(fields, FieldError{Field: "title", Message: "title is required"})
	}
	if _, ok := ParseShowType(string(s.Type)); s.Type != "" && !ok {
		fields = append(fields, FieldError{Field: "type", Message: `type must be "anime" or "cartoon"`})
	}
	if s.Year != nil && (*s.Year < 1900 || *s.Year > 2100) {
		fields = append(fields, FieldError{Field: "year", Message: "year must be between 1900 and 2100"})
	}
	if s.Rating != nil && (*s.Rating < 0 || *s.Rating > 10) {
		fields = append(fields, FieldError{Field: "rating", Message: "rating must be between 0 and 10"})
	}
	if s.PosterURL != "" && !isHTTPURL(s.PosterURL) {
		fields = append(fields, FieldError{Field: "poster_url", Message: "poster_url must be an absolute http(s) URL"})
	}
	if s.BackdropURL != "" && !isHTTPURL(s.BackdropURL) {
		fields = append(fields, FieldError{Field: "backdrop_url", Message: "backdrop_url must be an absolute http(s) URL"})
	}
	for i, ep := range s.Episodes {
		for _, fe := range ep.validate() {
			fe.Field = fmt.Sprintf("episodes[%d].%s", i, fe.Field)
			fields = append(fields, fe)
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (e Episode) validate() []FieldError {
	var fields []FieldError
	if e.Number < 1 {
		fields = append(fields, FieldError{Field: "number", Message: "number must be >= 1"})
	}
	if e.DurationMinutes < 1 || e.DurationMinutes > 300 {
		fields = append(fields, FieldError{Field: "duration_minutes", Message: "duration_minutes must be between 1 and 300"})
	}
	return fields
}

// WatchlistItem links an opaque user identifier to a show id. The show id is
// not checked against the show collection at write time, and duplicate
// (user_id, show_id) pairs are allowed.
type WatchlistItem struct {
	ID     string `json:"_id,omitempty"`
	UserID string `json:"user_id"`
	ShowID string `json:"show_id"`
}

// Validate checks required watchlist fields.
func (w WatchlistItem) Validate() error {
	var fields []FieldError
	if strings.TrimSpace(w.UserID) == "" {
		fields = append(fields, FieldError{Field: "user_id", Message: "user_id is required"})
	}
	if strings.TrimSpace(w.ShowID) == "" {
		fields = append(fields, FieldError{Field: "show_id", Message: "show_id is required"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// UserProgress tracks playback position per (user_id, show_id). The pair is
// the natural key: a later save replaces the earlier record wholesale.
type UserProgress struct {
	UserID          string `json:"user_id"`
	ShowID          string `json:"show_id"`
	EpisodeNumber   int    `json:"episode_number"`
	PositionSeconds int    `json:"position_seconds"`
}

// Validate checks required progress fields.
func (p UserProgress) Validate() error {
	var fields []FieldError
	if strings.TrimSpace(p.UserID) == "" {
		fields = append(fields, FieldError{Field: "user_id", Message: "user_id is required"})
	}
	if strings.TrimSpace(p.ShowID) == "" {
		fields = append(fields, FieldError{Field: "show_id", Message: "show_id is required"})
	}
	if p.PositionSeconds < 0 {
		fields = append(fields, FieldError{Field: "position_seconds", Message: "position_seconds must be >= 0"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
