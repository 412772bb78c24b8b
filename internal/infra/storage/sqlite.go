package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"escrow_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// schemaVersion is bumped whenever the persisted schema changes shape.
// Opening a database written by a newer version is refused rather than
// migrated blindly.
const schemaVersion = 1

// schemaMeta is a single-row table recording the schema version.
type schemaMeta struct {
	ID      uint `gorm:"primaryKey"`
	Version int
}

// setting is a key-value row for scalar governance state (fee rate,
// treasury address) that must survive restarts.
type setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// Store is the SQLite-backed persistence layer for orders, nonces and
// governance reference data.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the database at path and migrates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return newStore(db)
}

func newStore(db *gorm.DB) (*Store, error) {
	err := db.AutoMigrate(
		&domain.Order{},
		&domain.NonceState{},
		&domain.Institution{},
		&domain.SupportedToken{},
		&setting{},
		&schemaMeta{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s := &Store{db: db}
	if err := s.checkSchemaVersion(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) checkSchemaVersion() error {
	var meta schemaMeta
	err := s.db.First(&meta).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.Create(&schemaMeta{Version: schemaVersion}).Error
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case meta.Version > schemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported %d", meta.Version, schemaVersion)
	default:
		return nil
	}
}

// Close releases the underlying database handle. Every operation on a
// closed store fails.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn inside one database transaction. Any error rolls the
// whole transaction back; this is the commit point for every order mutation.
func (s *Store) Transaction(fn func(tx *gorm.DB) error) error {
	return s.db.Transaction(fn)
}

// ======================================================================================
// Order Operations
// ======================================================================================

// InsertOrder creates a new order row inside tx.
func (s *Store) InsertOrder(tx *gorm.DB, order *domain.Order) error {
	return tx.Create(order).Error
}

// SaveOrder persists a mutated order inside tx.
func (s *Store) SaveOrder(tx *gorm.DB, order *domain.Order) error {
	return tx.Save(order).Error
}

// GetOrder retrieves an order by id. Returns (nil, nil) when missing.
func (s *Store) GetOrder(id string) (*domain.Order, error) {
	return getOrder(s.db, id)
}

// GetOrderTx retrieves an order by id inside tx. Returns (nil, nil) when
// missing.
func (s *Store) GetOrderTx(tx *gorm.DB, id string) (*domain.Order, error) {
	return getOrder(tx, id)
}

func getOrder(db *gorm.DB, id string) (*domain.Order, error) {
	var order domain.Order
	err := db.First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// OrdersBySeller returns all orders created by a depositor.
func (s *Store) OrdersBySeller(seller string) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.Where("seller = ?", seller).Order("created_at").Find(&orders).Error
	return orders, err
}

// ======================================================================================
// Nonce Operations
// ======================================================================================

// NextNonce increments and returns the counter for a depositor. The
// increment commits in its own transaction; a later aborted order leaves a
// gap, never a repeat.
func (s *Store) NextNonce(depositor string) (uint64, error) {
	var next uint64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var state domain.NonceState
		err := tx.First(&state, "depositor = ?", depositor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			state = domain.NonceState{Depositor: depositor}
		} else if err != nil {
			return err
		}
		state.Nonce++
		next = state.Nonce
		return tx.Save(&state).Error
	})
	return next, err
}

// ======================================================================================
// Governance Reference Data
// ======================================================================================

// SaveToken upserts the support flag for a token.
func (s *Store) SaveToken(token string, enabled bool) error {
	return s.db.Save(&domain.SupportedToken{Token: token, Enabled: enabled}).Error
}

// LoadTokens returns all token support flags.
func (s *Store) LoadTokens() (map[string]bool, error) {
	var rows []domain.SupportedToken
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	tokens := make(map[string]bool, len(rows))
	for _, row := range rows {
		tokens[row.Token] = row.Enabled
	}
	return tokens, nil
}

// SaveInstitutions upserts a batch of institutions.
func (s *Store) SaveInstitutions(institutions []domain.Institution) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := range institutions {
			if err := tx.Save(&institutions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadInstitutions returns all registered institutions.
func (s *Store) LoadInstitutions() ([]domain.Institution, error) {
	var rows []domain.Institution
	err := s.db.Order("code").Find(&rows).Error
	return rows, err
}

// SaveSetting upserts a scalar governance value.
func (s *Store) SaveSetting(key, value string) error {
	return s.db.Save(&setting{Key: key, Value: value}).Error
}

// LoadSettings returns all scalar governance values as a map.
func (s *Store) LoadSettings() (map[string]string, error) {
	var rows []setting
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}
