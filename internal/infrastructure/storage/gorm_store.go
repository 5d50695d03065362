package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartStorageModel is one row of the cart_storage table
type CartStorageModel struct {
	Key       string    `gorm:"column:storage_key;primaryKey;size:255"`
	Value     string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName returns the table name for GORM
func (CartStorageModel) TableName() string {
	return "cart_storage"
}

// GormStore implements cart.KeyValueStore on a SQL table through GORM.
// PostgreSQL is used in production; SQLite serves single-node installs and tests.
type GormStore struct {
	db     *gorm.DB
	closer func() error
}

// NewGormStore creates a store over db. The caller keeps ownership of db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// NewGormStoreWithCloser creates a store that runs closer on Close, used when
// the store owns its database connection
func NewGormStoreWithCloser(db *gorm.DB, closer func() error) *GormStore {
	return &GormStore{db: db, closer: closer}
}

// AutoMigrate creates the cart_storage table if it does not exist.
// PostgreSQL deployments use the SQL migrations instead.
func (s *GormStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&CartStorageModel{}); err != nil {
		return fmt.Errorf("failed to migrate cart_storage: %w", err)
	}
	return nil
}

// Get returns the value stored under key
func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var model CartStorageModel
	err := s.db.WithContext(ctx).Where("storage_key = ?", key).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cart.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart_storage: %w", err)
	}
	return []byte(model.Value), nil
}

// Set upserts value under key
func (s *GormStore) Set(ctx context.Context, key string, value []byte) error {
	model := CartStorageModel{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to write cart_storage: %w", err)
	}
	return nil
}

// Delete removes key
func (s *GormStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&CartStorageModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete from cart_storage: %w", err)
	}
	return nil
}

// Close releases the connection when the store owns it
func (s *GormStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Ensure GormStore implements cart.KeyValueStore
var _ cart.KeyValueStore = (*GormStore)(nil)
