package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Collection groups clips. The default collection has an empty ID and is
// not stored.
type Collection struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Selected    bool      `json:"selected"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCollection adds a new collection.
func (s *Store) CreateCollection(ctx context.Context, title, description string) (*Collection, error) {
	if title == "" {
		title = "Untitled Collection"
	}
	c := &Collection{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (id, title, description, selected, created_at) VALUES (?, ?, ?, 0, ?)`,
		c.ID, c.Title, c.Description, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert collection: %w", err)
	}
	return c, nil
}

// ListCollections returns all collections, oldest first.
func (s *Store) ListCollections(ctx context.Context) ([]*Collection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, selected, created_at FROM collections ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer rows.Close()

	var out []*Collection
	for rows.Next() {
		c := &Collection{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Selected, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SelectCollection marks id as the only selected collection. An empty id
// selects the default collection.
func (s *Store) SelectCollection(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE collections SET selected = 0`); err != nil {
		return fmt.Errorf("failed to clear selection: %w", err)
	}
	if id != "" {
		res, err := tx.ExecContext(ctx, `UPDATE collections SET selected = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to select collection: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("collection %s: %w", id, ErrNotFound)
		}
	}
	return tx.Commit()
}

// SelectedCollection returns the selected collection, or ErrNotFound when
// the default collection is in use.
func (s *Store) SelectedCollection(ctx context.Context) (*Collection, error) {
	c := &Collection{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, selected, created_at FROM collections WHERE selected = 1 LIMIT 1`).
		Scan(&c.ID, &c.Title, &c.Description, &c.Selected, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load selected collection: %w", err)
	}
	return c, nil
}
