package store

import "context"

// NewNoop returns the store used when persistence is administratively
// disabled: reads answer with empty results, writes succeed without an
// identifier, and nothing ever touches storage.
func NewNoop() Store {
	return noopStore{}
}

type noopStore struct{}

func (noopStore) Migrate(context.Context) error { return nil }

func (noopStore) RecordCalculation(context.Context, string, Operation, float64, float64, float64) (*int64, error) {
	return nil, nil
}

func (noopStore) RecentCalculations(context.Context, int) ([]Calculation, error) {
	return []Calculation{}, nil
}

func (noopStore) ListUsers(context.Context) ([]UserWithCount, error) {
	return []UserWithCount{}, nil
}

func (noopStore) Close() error { return nil }
