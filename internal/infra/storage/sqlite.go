package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"crypto_dash/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the SQLite persistence layer (coin metadata + key-value settings).
// It also serves as a durable watchlist medium through Load/Save.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite database at dbPath
func NewStorage(dbPath string) (*Storage, error) {
	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newWithDB(db)
}

func newWithDB(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(&domain.CoinInfo{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close releases the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Coin Operations
// ======================================================================================

// UpsertCoin creates or updates coin metadata
func (s *Storage) UpsertCoin(coin *domain.CoinInfo) error {
	return s.db.Save(coin).Error
}

// GetCoin retrieves coin metadata by id
func (s *Storage) GetCoin(id string) (*domain.CoinInfo, error) {
	var coin domain.CoinInfo
	err := s.db.First(&coin, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &coin, nil
}

// GetAllCoins retrieves all coins
func (s *Storage) GetAllCoins() ([]domain.CoinInfo, error) {
	var coins []domain.CoinInfo
	err := s.db.Order("id").Find(&coins).Error
	return coins, err
}

// DeleteCoin deletes a coin from the database
func (s *Storage) DeleteCoin(id string) error {
	return s.db.Where("id = ?", id).Delete(&domain.CoinInfo{}).Error
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig saves a user configuration
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&config).Error
}

// GetConfig loads a single configuration value. ok is false if the key is absent.
func (s *Storage) GetConfig(key string) (value string, ok bool, err error) {
	var cfg domain.AppConfig
	err = s.db.First(&cfg, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return cfg.Value, true, nil
}

// ======================================================================================
// Watchlist Medium
// ======================================================================================

// Load implements watchlist.Medium on top of the key-value table
func (s *Storage) Load(key string) ([]byte, error) {
	value, ok, err := s.GetConfig(key)
	if err != nil || !ok {
		return nil, err
	}
	return []byte(value), nil
}

// Save implements watchlist.Medium on top of the key-value table
func (s *Storage) Save(key string, value []byte) error {
	return s.SaveConfig(key, string(value))
}
