package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store is the persistence interface handed to request handlers. Every call
// operates on a session scoped to the request's context, so cancellation and
// release follow the request lifecycle.
type Store interface {
	// Migrate idempotently ensures the schema exists.
	Migrate(ctx context.Context) error

	// RecordCalculation resolves the user by username (creating it with a
	// synthesized email on first sight) and inserts a calculation row.
	// It returns the generated calculation id, or an error if either insert
	// failed. Callers are expected to treat a failure as "not recorded"
	// rather than aborting the operation response.
	RecordCalculation(ctx context.Context, username string, op Operation, a, b, result float64) (*int64, error)

	// RecentCalculations returns up to limit calculations, newest first.
	RecentCalculations(ctx context.Context, limit int) ([]Calculation, error)

	// ListUsers returns all users with their calculation counts.
	ListUsers(ctx context.Context) ([]UserWithCount, error)

	Close() error
}

// Open connects to the postgres store at dsn.
func Open(dsn string) (Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing gorm handle. Used directly by tests, which supply an
// in-memory sqlite database.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&User{}, &Calculation{})
}

func (s *gormStore) RecordCalculation(ctx context.Context, username string, op Operation, a, b, result float64) (*int64, error) {
	sess := s.db.WithContext(ctx)

	user, err := resolveUser(sess, username)
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", username, err)
	}

	calc := Calculation{
		Operation: op,
		OperandA:  a,
		OperandB:  b,
		Result:    result,
		UserID:    user.ID,
	}
	if err := sess.Create(&calc).Error; err != nil {
		return nil, fmt.Errorf("insert calculation: %w", err)
	}
	return &calc.ID, nil
}

// resolveUser finds the user by exact username, creating it on first sight.
// Lookup-then-insert is not atomic: a concurrent request for the same new
// username can win the insert and leave us with a uniqueness violation, in
// which case the row exists now and a single re-fetch settles it.
func resolveUser(sess *gorm.DB, username string) (*User, error) {
	var user User
	err := sess.Where("username = ?", username).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = User{Username: username, Email: username + "@calculator.com"}
	if err := sess.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing User
			if ferr := sess.Where("username = ?", username).First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return &user, nil
}

func (s *gormStore) RecentCalculations(ctx context.Context, limit int) ([]Calculation, error) {
	// limit is caller-controlled and unbounded; never pre-allocate from it.
	calcs := make([]Calculation, 0)
	err := s.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&calcs).Error
	if err != nil {
		return nil, err
	}
	return calcs, nil
}

func (s *gormStore) ListUsers(ctx context.Context) ([]UserWithCount, error) {
	users := make([]UserWithCount, 0)
	err := s.db.WithContext(ctx).
		Model(&User{}).
		Select("users.id, users.username, users.email, users.created_at, count(calculations.id) AS calculation_count").
		Joins("LEFT JOIN calculations ON calculations.user_id = users.id").
		Group("users.id").
		Order("users.id").
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
