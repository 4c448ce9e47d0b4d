package database

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tieba-stats/models"
)

const pageSizeKey = "pageSize"

// DefaultPageSize is used until the viewer picks one.
const DefaultPageSize = 10

// PageSizeOptions are the page sizes the leaderboard offers.
var PageSizeOptions = []int{10, 20}

// ErrInvalidPageSize is returned for a page size outside PageSizeOptions.
var ErrInvalidPageSize = errors.New("invalid page size")

// Preferences persists viewer preferences as key-value rows.
type Preferences struct {
	db *gorm.DB
}

// NewPreferences wraps db.
func NewPreferences(db *gorm.DB) *Preferences {
	return &Preferences{db: db}
}

// Get returns the stored value for key and whether it exists.
func (p *Preferences) Get(ctx context.Context, key string) (string, bool, error) {
	var pref models.Preference
	err := p.db.WithContext(ctx).Where(map[string]any{"key": key}).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s: %w", key, err)
	}
	return pref.Value, true, nil
}

// Set upserts key.
func (p *Preferences) Set(ctx context.Context, key, value string) error {
	pref := models.Preference{Key: key, Value: value, UpdatedAt: time.Now()}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// PageSize returns the stored leaderboard page size, or DefaultPageSize when
// none is stored or the stored value is unusable.
func (p *Preferences) PageSize(ctx context.Context) (int, error) {
	raw, ok, err := p.Get(ctx, pageSizeKey)
	if err != nil || !ok {
		return DefaultPageSize, err
	}
	size, convErr := strconv.Atoi(raw)
	if convErr != nil || !slices.Contains(PageSizeOptions, size) {
		return DefaultPageSize, nil
	}
	return size, nil
}

// SetPageSize stores size if it is one of PageSizeOptions.
func (p *Preferences) SetPageSize(ctx context.Context, size int) error {
	if !slices.Contains(PageSizeOptions, size) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	return p.Set(ctx, pageSizeKey, strconv.Itoa(size))
}

// Ping checks the database connection.
func (p *Preferences) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
