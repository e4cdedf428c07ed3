package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/clipdeck/clipdeck/internal/clip"
)

// ClipItem is one entry of the clipboard history.
type ClipItem struct {
	ID           int64      `json:"id"`
	Value        string     `json:"value"`
	Hash         string     `json:"hash"`
	Kind         clip.Kind  `json:"kind"`
	Pinned       bool       `json:"pinned"`
	Favorite     bool       `json:"favorite"`
	CollectionID string     `json:"collection_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CopiedAt     *time.Time `json:"copied_at,omitempty"`
}

// HistoryQuery filters ListHistory. Zero Limit means no limit.
type HistoryQuery struct {
	Search       string
	CollectionID string
	PinnedOnly   bool
	Limit        int
	Offset       int
}

// ClipUpdate lists the fields to change; nil fields are left alone.
type ClipUpdate struct {
	Value    *string
	Pinned   *bool
	Favorite *bool
	CopiedAt *time.Time
}

const clipColumns = `id, value, hash, kind, pinned, favorite, collection_id, created_at, updated_at, copied_at`

// HashValue returns the dedupe key for a clip value.
func HashValue(value string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(value))
}

// SaveClip stores value in a collection. Saving a value that already
// exists there bumps the existing clip to the top instead.
func (s *Store) SaveClip(ctx context.Context, collectionID, value string) (*ClipItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := saveClipTx(ctx, tx, collectionID, value, time.Now())
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit clip: %w", err)
	}
	return s.GetClip(ctx, id)
}

// SaveClips stores many values in one transaction. Empty values are
// skipped. It returns how many values were stored or bumped.
func (s *Store) SaveClips(ctx context.Context, collectionID string, values []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	saved := 0
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		// Keep input order visible: later values are newer.
		if _, err := saveClipTx(ctx, tx, collectionID, v, now.Add(time.Duration(i)*time.Microsecond)); err != nil {
			return 0, err
		}
		saved++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit clips: %w", err)
	}
	return saved, nil
}

func saveClipTx(ctx context.Context, tx *sql.Tx, collectionID, value string, now time.Time) (int64, error) {
	hash := HashValue(value)

	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM clips WHERE hash = ? AND collection_id = ?`, hash, collectionID).Scan(&id)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx, `UPDATE clips SET updated_at = ? WHERE id = ?`, now, id); err != nil {
			return 0, fmt.Errorf("failed to bump clip: %w", err)
		}
		return id, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("failed to look up clip: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO clips (value, hash, kind, collection_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		value, hash, string(clip.DetectKind(value)), collectionID, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert clip: %w", err)
	}
	return res.LastInsertId()
}

// GetClip loads a clip by ID.
func (s *Store) GetClip(ctx context.Context, id int64) (*ClipItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM clips WHERE id = ?`, id)
	item, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("clip %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load clip: %w", err)
	}
	return item, nil
}

// ListHistory returns clips with pinned ones first, then newest first.
func (s *Store) ListHistory(ctx context.Context, q HistoryQuery) ([]*ClipItem, error) {
	var (
		where []string
		args  []any
	)
	where = append(where, "collection_id = ?")
	args = append(args, q.CollectionID)
	if q.Search != "" {
		where = append(where, "value LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}
	if q.PinnedOnly {
		where = append(where, "pinned = 1")
	}

	query := `SELECT ` + clipColumns + ` FROM clips WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY pinned DESC, updated_at DESC, id DESC`
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var items []*ClipItem
	for rows.Next() {
		item, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountHistory returns the number of clips in a collection.
func (s *Store) CountHistory(ctx context.Context, collectionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clips WHERE collection_id = ?`, collectionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// UpdateClip applies u to one clip.
func (s *Store) UpdateClip(ctx context.Context, id int64, u ClipUpdate) error {
	n, err := s.UpdateClips(ctx, []int64{id}, u)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("clip %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateClips applies u to every listed clip and returns how many changed.
func (s *Store) UpdateClips(ctx context.Context, ids []int64, u ClipUpdate) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	sets := []string{"updated_at = updated_at"}
	var args []any
	if u.Value != nil {
		sets = append(sets, "value = ?", "hash = ?", "kind = ?")
		args = append(args, *u.Value, HashValue(*u.Value), string(clip.DetectKind(*u.Value)))
	}
	if u.Pinned != nil {
		sets = append(sets, "pinned = ?")
		args = append(args, *u.Pinned)
	}
	if u.Favorite != nil {
		sets = append(sets, "favorite = ?")
		args = append(args, *u.Favorite)
	}
	if u.CopiedAt != nil {
		sets = append(sets, "copied_at = ?")
		args = append(args, *u.CopiedAt)
	}
	args = append(args, int64Args(ids)...)

	res, err := s.db.ExecContext(ctx,
		`UPDATE clips SET `+strings.Join(sets, ", ")+` WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update clips: %w", err)
	}
	return res.RowsAffected()
}

// DeleteClips removes the listed clips and returns how many were deleted.
func (s *Store) DeleteClips(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM clips WHERE id IN (`+placeholders(len(ids))+`)`, int64Args(ids)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete clips: %w", err)
	}
	return res.RowsAffected()
}

// TrimHistory keeps the newest keep unpinned clips of a collection and
// deletes the rest. Pinned clips are never trimmed.
func (s *Store) TrimHistory(ctx context.Context, collectionID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM clips
		WHERE collection_id = ? AND pinned = 0 AND id NOT IN (
			SELECT id FROM clips
			WHERE collection_id = ? AND pinned = 0
			ORDER BY updated_at DESC, id DESC
			LIMIT ?
		)`, collectionID, collectionID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to trim history: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClip(r rowScanner) (*ClipItem, error) {
	item := &ClipItem{}
	var kind string
	var copied sql.NullTime
	if err := r.Scan(
		&item.ID,
		&item.Value,
		&item.Hash,
		&kind,
		&item.Pinned,
		&item.Favorite,
		&item.CollectionID,
		&item.CreatedAt,
		&item.UpdatedAt,
		&copied,
	); err != nil {
		return nil, err
	}
	item.Kind = clip.Kind(kind)
	if copied.Valid {
		t := copied.Time
		item.CopiedAt = &t
	}
	return item, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
