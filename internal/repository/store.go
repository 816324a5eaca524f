package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a write violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")

	// ErrReferenced is returned when a delete would orphan rows pointing at it
	ErrReferenced = errors.New("record is still referenced")
)

// Store handles all relational operations
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store over an open gorm handle
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db: db,
	}
}

// WithTx runs fn inside a transaction. The Store passed to fn is bound to the
// transaction; fn must not use the outer Store.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// DB exposes the underlying handle for seeding and tests
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Ping checks if database is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrReferenced
	default:
		return err
	}
}
