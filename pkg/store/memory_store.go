package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"aniflix/pkg/domain"
)

// MemoryStore keeps records in-process. It mirrors GormStore semantics and
// backs tests that need a substitutable store.
type MemoryStore struct {
	mu        sync.RWMutex
	shows     map[string]domain.Show
	showOrder []string
	watchlist []domain.WatchlistItem
	progress  map[string]domain.UserProgress // key: userID + "\x00" + showID
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shows:    make(map[string]domain.Show),
		progress: make(map[string]domain.UserProgress),
	}
}

// CreateShow stores a show under a generated id.
func (m *MemoryStore) CreateShow(_ context.Context, show domain.Show) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	show.ID = uuid.NewString()
	show.Normalize()
	m.shows[show.ID] = show
	m.showOrder = append(m.showOrder, show.ID)
	return show.ID, nil
}

// SearchShows applies the filter in insertion order.
func (m *MemoryStore) SearchShows(_ context.Context, filter ShowFilter) ([]domain.Show, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := []domain.Show{}
	for _, id := range m.showOrder {
		show := m.shows[id]
		if !matchesFilter(show, filter) {
			continue
		}
		res = append(res, show)
		if filter.Limit > 0 && len(res) >= filter.Limit {
			break
		}
	}
	return res, nil
}

// GetShow retrieves one show by id.
func (m *MemoryStore) GetShow(_ context.Context, id string) (domain.Show, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	show, ok := m.shows[id]
	return show, ok, nil
}

// GetShowsByIDs resolves the given ids, skipping unknown ones.
func (m *MemoryStore) GetShowsByIDs(_ context.Context, ids []string) ([]domain.Show, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	res := []domain.Show{}
	for _, id := range m.showOrder {
		if _, ok := want[id]; ok {
			res = append(res, m.shows[id])
		}
	}
	return res, nil
}

// CountShows returns the number of stored shows.
func (m *MemoryStore) CountShows(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.shows)), nil
}

// CreateWatchlistItem appends a watchlist entry. Duplicates are allowed.
func (m *MemoryStore) CreateWatchlistItem(_ context.Context, item domain.WatchlistItem) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = uuid.NewString()
	m.watchlist = append(m.watchlist, item)
	return item.ID, nil
}

// ListWatchlistItems returns up to limit entries for a user in insertion order.
func (m *MemoryStore) ListWatchlistItems(_ context.Context, userID string, limit int) ([]domain.WatchlistItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := []domain.WatchlistItem{}
	for _, item := range m.watchlist {
		if item.UserID != userID {
			continue
		}
		res = append(res, item)
		if limit > 0 && len(res) >= limit {
			break
		}
	}
	return res, nil
}

// SaveProgress replaces the record for (user_id, show_id) wholesale.
func (m *MemoryStore) SaveProgress(_ context.Context, progress domain.UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[progressKey(progress.UserID, progress.ShowID)] = progress
	return nil
}

// GetProgress returns the record for (user_id, show_id) or reports absence.
func (m *MemoryStore) GetProgress(_ context.Context, userID, showID string) (domain.UserProgress, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[progressKey(userID, showID)]
	return p, ok, nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(_ context.Context) error { return nil }

// Collections lists the collection names.
func (m *MemoryStore) Collections() []string {
	return []string{"show", "watchlistitem", "userprogress"}
}

func progressKey(userID, showID string) string {
	return userID + "\x00" + showID
}

func matchesFilter(show domain.Show, filter ShowFilter) bool {
	if filter.TitleSubstring != "" &&
		!strings.Contains(strings.ToLower(show.Title), strings.ToLower(filter.TitleSubstring)) {
		return false
	}
	if filter.Genre != "" && !containsString(show.Genres, filter.Genre) {
		return false
	}
	if filter.Type != "" && string(show.Type) != filter.Type {
		return false
	}
	if filter.Tag != "" && !containsString(show.Tags, filter.Tag) {
		return false
	}
	return true
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
