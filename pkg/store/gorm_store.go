package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aniflix/pkg/domain"
)

// defaultOpTimeout bounds every store operation so a stalled database
// surfaces as an error instead of blocking the request forever.
const defaultOpTimeout = 5 * time.Second

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db        *gorm.DB
	opTimeout time.Duration
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&ShowModel{}, &WatchlistItemModel{}, &UserProgressModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db, opTimeout: defaultOpTimeout}, nil
}

// newGormStoreWithDB wraps an already-open connection without migrating.
// Used by tests with a mocked driver.
func newGormStoreWithDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db, opTimeout: defaultOpTimeout}
}

func (s *GormStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// CreateShow inserts one show and returns the generated identifier.
func (s *GormStore) CreateShow(ctx context.Context, show domain.Show) (string, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	model := showToModel(show)
	model.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", err
	}
	return model.ID, nil
}

// SearchShows translates the filter into a query against the show table.
// Supplied parameters are ANDed; no explicit ordering is applied.
func (s *GormStore) SearchShows(ctx context.Context, filter ShowFilter) ([]domain.Show, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	tx := s.db.WithContext(ctx).Model(&ShowModel{})
	if filter.TitleSubstring != "" {
		tx = tx.Where("title ILIKE ?", "%"+escapeLike(filter.TitleSubstring)+"%")
	}
	if filter.Genre != "" {
		tx = tx.Where(datatypes.JSONArrayQuery("genres").Contains(filter.Genre))
	}
	if filter.Type != "" {
		tx = tx.Where("type = ?", filter.Type)
	}
	if filter.Tag != "" {
		tx = tx.Where(datatypes.JSONArrayQuery("tags").Contains(filter.Tag))
	}
	if filter.Limit > 0 {
		tx = tx.Limit(filter.Limit)
	}
	var models []ShowModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	return showsFromModels(models), nil
}

// GetShow retrieves one show by id.
func (s *GormStore) GetShow(ctx context.Context, id string) (domain.Show, bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	var model ShowModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Show{}, false, nil
		}
		return domain.Show{}, false, err
	}
	return showFromModel(model), true, nil
}

// GetShowsByIDs resolves a set of show ids in one batched lookup.
func (s *GormStore) GetShowsByIDs(ctx context.Context, ids []string) ([]domain.Show, error) {
	if len(ids) == 0 {
		return []domain.Show{}, nil
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	var models []ShowModel
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	return showsFromModels(models), nil
}

// CountShows returns the number of stored shows.
func (s *GormStore) CountShows(ctx context.Context) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	var count int64
	if err := s.db.WithContext(ctx).Model(&ShowModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CreateWatchlistItem inserts one watchlist entry and returns its id.
func (s *GormStore) CreateWatchlistItem(ctx context.Context, item domain.WatchlistItem) (string, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	model := watchlistItemToModel(item)
	model.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return "", err
	}
	return model.ID, nil
}

// ListWatchlistItems returns up to limit entries for a user.
func (s *GormStore) ListWatchlistItems(ctx context.Context, userID string, limit int) ([]domain.WatchlistItem, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	tx := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var models []WatchlistItemModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.WatchlistItem, 0, len(models))
	for _, m := range models {
		res = append(res, watchlistItemFromModel(m))
	}
	return res, nil
}

// SaveProgress creates or replaces the progress row for (user_id, show_id)
// in a single atomic statement.
func (s *GormStore) SaveProgress(ctx context.Context, progress domain.UserProgress) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	model := UserProgressModel{
		ID:              uuid.NewString(),
		UserID:          progress.UserID,
		ShowID:          progress.ShowID,
		EpisodeNumber:   progress.EpisodeNumber,
		PositionSeconds: progress.PositionSeconds,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "show_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"episode_number", "position_seconds", "updated_at"}),
	}).Create(&model).Error
}

// GetProgress returns the progress row for (user_id, show_id), reporting
// absence without an error.
func (s *GormStore) GetProgress(ctx context.Context, userID, showID string) (domain.UserProgress, bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	var model UserProgressModel
	if err := s.db.WithContext(ctx).First(&model, "user_id = ? AND show_id = ?", userID, showID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.UserProgress{}, false, nil
		}
		return domain.UserProgress{}, false, err
	}
	return progressFromModel(model), true, nil
}

// Ping checks database connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Collections lists the persisted table names.
func (s *GormStore) Collections() []string {
	return []string{
		ShowModel{}.TableName(),
		WatchlistItemModel{}.TableName(),
		UserProgressModel{}.TableName(),
	}
}

func showsFromModels(models []ShowModel) []domain.Show {
	res := make([]domain.Show, 0, len(models))
	for _, m := range models {
		res = append(res, showFromModel(m))
	}
	return res
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
