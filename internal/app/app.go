package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"aniflix/internal/util"
	"aniflix/pkg/domain"
	"aniflix/pkg/store"
)

const (
	defaultSearchLimit         = 50
	defaultMaxSearchLimit      = 200
	defaultWatchlistFetchLimit = 1000
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store

	// MaxSearchLimit caps the per-request limit parameter on show search.
	MaxSearchLimit int
	// WatchlistFetchLimit bounds how many watchlist entries one join
	// resolution reads from the store.
	WatchlistFetchLimit int
}

// App is the core application service wiring the store to domain logic.
type App struct {
	store               store.Store
	maxSearchLimit      int
	watchlistFetchLimit int
}

// New constructs the application. When no store is supplied, a
// database-backed one is opened from DatabaseURL.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	maxSearchLimit := cfg.MaxSearchLimit
	if maxSearchLimit <= 0 {
		maxSearchLimit = defaultMaxSearchLimit
	}
	watchlistFetchLimit := cfg.WatchlistFetchLimit
	if watchlistFetchLimit <= 0 {
		watchlistFetchLimit = defaultWatchlistFetchLimit
	}
	return &App{
		store:               dataStore,
		maxSearchLimit:      maxSearchLimit,
		watchlistFetchLimit: watchlistFetchLimit,
	}, nil
}

// SearchParams carries the optional query parameters for show search.
type SearchParams struct {
	Query string
	Genre string
	Type  string
	Tag   string
	Limit int
}

// SearchShows validates the parameters, builds the store filter, and returns
// at most Limit matching shows (default 50) in store-native order.
func (a *App) SearchShows(ctx context.Context, params SearchParams) ([]domain.Show, error) {
	if params.Type != "" {
		if _, ok := domain.ParseShowType(params.Type); !ok {
			return nil, fmt.Errorf("%w: type must be \"anime\" or \"cartoon\"", ErrInvalidArgument)
		}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > a.maxSearchLimit {
		limit = a.maxSearchLimit
	}
	shows, err := a.store.SearchShows(ctx, store.ShowFilter{
		TitleSubstring: params.Query,
		Genre:          params.Genre,
		Type:           params.Type,
		Tag:            params.Tag,
		Limit:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search shows: %w", err)
	}
	if shows == nil {
		shows = []domain.Show{}
	}
	return shows, nil
}

// CreateShow validates and inserts one show, returning its generated id.
func (a *App) CreateShow(ctx context.Context, show domain.Show) (string, error) {
	show.Normalize()
	if err := show.Validate(); err != nil {
		return "", err
	}
	id, err := a.store.CreateShow(ctx, show)
	if err != nil {
		return "", fmt.Errorf("create show: %w", err)
	}
	return id, nil
}

// GetShow returns one show by id. A malformed id fails with ErrInvalidID
// before any store call; a well-formed but absent id fails with ErrNotFound.
func (a *App) GetShow(ctx context.Context, id string) (domain.Show, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Show{}, ErrInvalidID
	}
	show, ok, err := a.store.GetShow(ctx, id)
	if err != nil {
		return domain.Show{}, fmt.Errorf("get show: %w", err)
	}
	if !ok {
		return domain.Show{}, ErrNotFound
	}
	return show, nil
}

// AddWatchlistItem validates and inserts one watchlist entry. The referenced
// show id is not checked for existence.
func (a *App) AddWatchlistItem(ctx context.Context, item domain.WatchlistItem) (string, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}
	id, err := a.store.CreateWatchlistItem(ctx, item)
	if err != nil {
		return "", fmt.Errorf("add watchlist item: %w", err)
	}
	return id, nil
}

// WatchlistShows resolves a user's watchlist entries to show records.
// Entries whose show_id is not a well-formed identifier are dropped without
// error; the remaining ids are resolved in a single batched lookup.
func (a *App) WatchlistShows(ctx context.Context, userID string) ([]domain.Show, error) {
	items, err := a.store.ListWatchlistItems(ctx, userID, a.watchlistFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	ids := make([]string, 0, len(items))
	dropped := 0
	for _, item := range items {
		if _, err := uuid.Parse(item.ShowID); err != nil {
			dropped++
			continue
		}
		ids = append(ids, item.ShowID)
	}
	if dropped > 0 {
		util.LoggerFromContext(ctx).Debug("dropped watchlist entries with malformed show ids",
			"user_id", userID, "dropped", dropped)
	}
	if len(ids) == 0 {
		return []domain.Show{}, nil
	}
	shows, err := a.store.GetShowsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve watchlist shows: %w", err)
	}
	if shows == nil {
		shows = []domain.Show{}
	}
	return shows, nil
}

// SaveProgress validates and upserts a progress record keyed by
// (user_id, show_id). A later save replaces the earlier values wholesale.
func (a *App) SaveProgress(ctx context.Context, progress domain.UserProgress) error {
	if err := progress.Validate(); err != nil {
		return err
	}
	if err := a.store.SaveProgress(ctx, progress); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// GetProgress returns the progress record for (user_id, show_id); absence is
// reported via the bool, never as an error.
func (a *App) GetProgress(ctx context.Context, userID, showID string) (domain.UserProgress, bool, error) {
	progress, ok, err := a.store.GetProgress(ctx, userID, showID)
	if err != nil {
		return domain.UserProgress{}, false, fmt.Errorf("get progress: %w", err)
	}
	return progress, ok, nil
}

// Collections lists the persisted collection names.
func (a *App) Collections() []string {
	return a.store.Collections()
}

// Diagnostics summarizes backend and store health for the /test endpoint.
type Diagnostics struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
}

// Diagnose reports store connectivity. It never returns an error; failures
// are embedded in the summary.
func (a *App) Diagnose(ctx context.Context) Diagnostics {
	d := Diagnostics{
		Backend:          "running",
		Database:         "unavailable",
		ConnectionStatus: "not connected",
		Collections:      []string{},
	}
	if err := a.store.Ping(ctx); err != nil {
		d.Database = fmt.Sprintf("error: %v", err)
		return d
	}
	d.Database = "connected"
	d.ConnectionStatus = "connected"
	d.Collections = a.store.Collections()
	return d
}
