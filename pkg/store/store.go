package store

import (
	"context"

	"aniflix/pkg/domain"
)

// ShowFilter holds the optional search parameters for the show collection.
// All supplied fields are ANDed together; zero values impose no constraint.
type ShowFilter struct {
	TitleSubstring string // case-insensitive substring match on title
	Genre          string // exact membership in the genres list
	Type           string // exact match on type
	Tag            string // exact membership in the tags list
	Limit          int    // max results; <= 0 means no explicit limit
}

// Store defines persistence operations for shows, watchlist entries, and
// per-user progress. Implementations must be safe for concurrent use; the
// process shares a single Store across all requests.
type Store interface {
	// shows
	CreateShow(ctx context.Context, show domain.Show) (string, error)
	SearchShows(ctx context.Context, filter ShowFilter) ([]domain.Show, error)
	GetShow(ctx context.Context, id string) (domain.Show, bool, error)
	GetShowsByIDs(ctx context.Context, ids []string) ([]domain.Show, error)
	CountShows(ctx context.Context) (int64, error)

	// watchlist
	CreateWatchlistItem(ctx context.Context, item domain.WatchlistItem) (string, error)
	ListWatchlistItems(ctx context.Context, userID string, limit int) ([]domain.WatchlistItem, error)

	// progress; SaveProgress must be a single atomic create-or-replace
	// keyed by (user_id, show_id), never a read-then-write sequence.
	SaveProgress(ctx context.Context, progress domain.UserProgress) error
	GetProgress(ctx context.Context, userID, showID string) (domain.UserProgress, bool, error)

	// diagnostics
	Ping(ctx context.Context) error
	Collections() []string
}
