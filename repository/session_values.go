// Package repository provides the Bun-backed durable storage for session
// values. A single key/value table stands in for the browser-local storage
// the upstream front end used; each key write is a single upsert so clears
// and overwrites stay atomic per key.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	dulceria "github.com/uayeb25/dulceria-client"
)

var _ dulceria.KeyValue = (*SessionValues)(nil)

// SessionValueModel is the Bun model for persisted session values.
type SessionValueModel struct {
	bun.BaseModel `bun:"table:session_values"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,default:current_timestamp"`
}

// SessionValues implements the dulceria.KeyValue port using Bun.
type SessionValues struct {
	db *bun.DB
}

// NewSessionValues creates a new repository over an existing Bun DB.
func NewSessionValues(db *bun.DB) *SessionValues {
	return &SessionValues{db: db}
}

// OpenDB opens (or creates) the SQLite database at path and ensures the
// session_values table exists.
func OpenDB(ctx context.Context, path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*SessionValueModel)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Get returns the stored value for key, empty string when absent.
func (r *SessionValues) Get(ctx context.Context, key string) (string, error) {
	var model SessionValueModel
	err := r.db.NewSelect().
		Model(&model).
		Where("key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.Value, nil
}

// Set upserts the value for key.
func (r *SessionValues) Set(ctx context.Context, key, value string) error {
	model := &SessionValueModel{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(model).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// Delete removes the value for key. Deleting a missing key is not an error.
func (r *SessionValues) Delete(ctx context.Context, key string) error {
	_, err := r.db.NewDelete().
		Model((*SessionValueModel)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	return err
}

// Clear removes every stored value.
func (r *SessionValues) Clear(ctx context.Context) error {
	_, err := r.db.NewDelete().
		Model((*SessionValueModel)(nil)).
		Where("1 = 1").
		Exec(ctx)
	return err
}
