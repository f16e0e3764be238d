package app

import (
	"context"
	"errors"
	"testing"

	"aniflix/pkg/domain"
	"aniflix/pkg/store"
)

func newTestApp(t *testing.T) (*App, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	a, err := New(Config{Store: mem})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, mem
}

func mustCreateShow(t *testing.T, a *App, show domain.Show) string {
	t.Helper()
	id, err := a.CreateShow(context.Background(), show)
	if err != nil {
		t.Fatalf("create show %q: %v", show.Title, err)
	}
	return id
}

func TestCreateShowRejectsInvalidInput(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.CreateShow(context.Background(), domain.Show{Description: "no title"})
	var validation *domain.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got: %v", err)
	}
}

func TestCreateThenGetShowRoundTrip(t *testing.T) {
	a, _ := newTestApp(t)
	year := 2002
	id := mustCreateShow(t, a, domain.Show{Title: "Naruto", Description: "Ninja.", Type: domain.TypeAnime, Year: &year})

	got, err := a.GetShow(context.Background(), id)
	if err != nil {
		t.Fatalf("get show: %v", err)
	}
	if got.ID != id || got.Title != "Naruto" || got.Year == nil || *got.Year != 2002 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestGetShowInvalidIDFailsBeforeStore(t *testing.T) {
	a, _ := newTestApp(t)
	if _, err := a.GetShow(context.Background(), "not-a-uuid"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got: %v", err)
	}
}

func TestGetShowWellFormedButAbsent(t *testing.T) {
	a, _ := newTestApp(t)
	if _, err := a.GetShow(context.Background(), "9f4c1b1e-0000-4000-8000-000000000001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestSearchShowsRejectsUnknownType(t *testing.T) {
	a, _ := newTestApp(t)
	if _, err := a.SearchShows(context.Background(), SearchParams{Type: "documentary"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got: %v", err)
	}
}

func TestSearchShowsDefaultLimit(t *testing.T) {
	a, _ := newTestApp(t)
	for i := 0; i < 60; i++ {
		mustCreateShow(t, a, domain.Show{Title: "Show", Description: "d"})
	}
	shows, err := a.SearchShows(context.Background(), SearchParams{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(shows) != 50 {
		t.Fatalf("got %d shows, want default cap of 50", len(shows))
	}
}

func TestSearchShowsCapsRequestedLimit(t *testing.T) {
	a, err := New(Config{Store: store.NewMemoryStore(), MaxSearchLimit: 5})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	for i := 0; i < 10; i++ {
		mustCreateShow(t, a, domain.Show{Title: "Show", Description: "d"})
	}
	shows, err := a.SearchShows(context.Background(), SearchParams{Limit: 100})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(shows) != 5 {
		t.Fatalf("got %d shows, want cap of 5", len(shows))
	}
}

// recordingStore wraps a Store and counts batched lookups.
type recordingStore struct {
	store.Store
	batchLookups int
}

func (r *recordingStore) GetShowsByIDs(ctx context.Context, ids []string) ([]domain.Show, error) {
	r.batchLookups++
	return r.Store.GetShowsByIDs(ctx, ids)
}

func TestWatchlistShowsDropsMalformedIDs(t *testing.T) {
	rec := &recordingStore{Store: store.NewMemoryStore()}
	a, err := New(Config{Store: rec})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	id := mustCreateShow(t, a, domain.Show{Title: "Naruto", Description: "Ninja."})
	ctx := context.Background()
	entries := []domain.WatchlistItem{
		{UserID: "u1", ShowID: id},
		{UserID: "u1", ShowID: "garbage"},
		{UserID: "u1", ShowID: "also-not-a-uuid"},
	}
	for _, e := range entries {
		if _, err := a.AddWatchlistItem(ctx, e); err != nil {
			t.Fatalf("add watchlist item: %v", err)
		}
	}

	shows, err := a.WatchlistShows(ctx, "u1")
	if err != nil {
		t.Fatalf("watchlist shows: %v", err)
	}
	if len(shows) != 1 || shows[0].Title != "Naruto" {
		t.Fatalf("unexpected resolution: %+v", shows)
	}
	if rec.batchLookups != 1 {
		t.Fatalf("got %d lookups, want exactly 1 batched lookup", rec.batchLookups)
	}
}

func TestWatchlistShowsNoValidIDsSkipsLookup(t *testing.T) {
	rec := &recordingStore{Store: store.NewMemoryStore()}
	a, err := New(Config{Store: rec})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	ctx := context.Background()
	if _, err := a.AddWatchlistItem(ctx, domain.WatchlistItem{UserID: "u1", ShowID: "garbage"}); err != nil {
		t.Fatalf("add watchlist item: %v", err)
	}

	shows, err := a.WatchlistShows(ctx, "u1")
	if err != nil {
		t.Fatalf("watchlist shows: %v", err)
	}
	if len(shows) != 0 {
		t.Fatalf("expected empty result, got: %+v", shows)
	}
	if rec.batchLookups != 0 {
		t.Fatalf("expected no lookup when no valid ids exist, got %d", rec.batchLookups)
	}
}

func TestSaveProgressOverwritesNotAccumulates(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	first := domain.UserProgress{UserID: "u1", ShowID: "s1", EpisodeNumber: 3, PositionSeconds: 120}
	if err := a.SaveProgress(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}
	second := first
	second.EpisodeNumber = 5
	if err := a.SaveProgress(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, ok, err := a.GetProgress(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if !ok {
		t.Fatalf("expected progress record")
	}
	if got.EpisodeNumber != 5 {
		t.Fatalf("episode_number = %d, want 5", got.EpisodeNumber)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	seeded, count, err := a.Seed(ctx)
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if !seeded || count != 3 {
		t.Fatalf("first seed = (%v, %d), want (true, 3)", seeded, count)
	}

	seeded, count, err = a.Seed(ctx)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if seeded || count != 3 {
		t.Fatalf("second seed = (%v, %d), want (false, 3)", seeded, count)
	}
}

func TestDiagnoseReportsConnectedStore(t *testing.T) {
	a, _ := newTestApp(t)
	d := a.Diagnose(context.Background())
	if d.Backend != "running" || d.Database != "connected" {
		t.Fatalf("unexpected diagnostics: %+v", d)
	}
	if len(d.Collections) != 3 {
		t.Fatalf("collections = %v", d.Collections)
	}
}
