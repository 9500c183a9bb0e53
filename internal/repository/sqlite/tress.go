package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/tressa/tressa/internal/apperror"
	"github.com/tressa/tressa/internal/model"
	"github.com/tressa/tressa/internal/repository"
)

// compile-time check that *DB implements repository.TressRepository
var _ repository.TressRepository = (*DB)(nil)

// notExpired is the filter applied to every read query except the
// owner-delete lookup. An expired row is treated as absent even though it
// physically exists until the reaper's next sweep. The single ? is bound
// to the current UTC instant.
const notExpired = `(expires_at IS NULL OR expires_at > ?)`

const tressColumns = `id, title, content, language, is_public, owner_id, owner_username, created_at, expires_at`

// Create inserts a new tress. The store assigns the ID (xid: 20 chars,
// URL-safe, time-sortable) and the creation timestamp; both are immutable
// afterwards.
func (db *DB) Create(ctx context.Context, tress *model.Tress) error {
	tress.ID = xid.New().String()
	tress.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tresses (`+tressColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tress.ID,
		tress.Title,
		tress.Content,
		tress.Language,
		tress.IsPublic,
		nullString(tress.OwnerID),
		tress.OwnerUsername,
		tress.CreatedAt,
		nullTime(tress.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating tress: %w", err)
	}

	return nil
}

// GetByID retrieves a tress by ID, treating expired rows as not found.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Tress, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+tressColumns+` FROM tresses WHERE id = ? AND `+notExpired,
		id, time.Now().UTC(),
	)
	tress, err := scanTress(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tress", id)
		}
		return nil, fmt.Errorf("sqlite: getting tress %s: %w", id, err)
	}
	return tress, nil
}

// GetByIDIncludingExpired retrieves a tress regardless of expiry state.
// Only the delete path uses this: an owner may remove an expired tress
// that the reaper has not swept yet.
func (db *DB) GetByIDIncludingExpired(ctx context.Context, id string) (*model.Tress, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+tressColumns+` FROM tresses WHERE id = ?`,
		id,
	)
	tress, err := scanTress(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tress", id)
		}
		return nil, fmt.Errorf("sqlite: getting tress %s: %w", id, err)
	}
	return tress, nil
}

// ListPublic returns unexpired public tresses, newest first.
func (db *DB) ListPublic(ctx context.Context, opts repository.ListOptions) ([]model.Tress, error) {
	return db.listTresses(ctx,
		`SELECT `+tressColumns+` FROM tresses
		 WHERE is_public = 1 AND `+notExpired+`
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		time.Now().UTC(), opts.Limit, opts.Offset,
	)
}

// ListOwnedBy returns the (public and private) unexpired tresses owned by
// the given user, newest first.
func (db *DB) ListOwnedBy(ctx context.Context, ownerID string, opts repository.ListOptions) ([]model.Tress, error) {
	return db.listTresses(ctx,
		`SELECT `+tressColumns+` FROM tresses
		 WHERE owner_id = ? AND `+notExpired+`
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		ownerID, time.Now().UTC(), opts.Limit, opts.Offset,
	)
}

// CountPublic counts unexpired public tresses, for pagination totals.
func (db *DB) CountPublic(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tresses WHERE is_public = 1 AND `+notExpired,
		time.Now().UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting public tresses: %w", err)
	}
	return count, nil
}

// CountOwnedBy counts unexpired tresses owned by the given user.
func (db *DB) CountOwnedBy(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tresses WHERE owner_id = ? AND `+notExpired,
		ownerID, time.Now().UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting tresses for owner %s: %w", ownerID, err)
	}
	return count, nil
}

// Update persists the mutable fields of a tress. Owner identity and
// created_at are never part of the SET list — they are immutable.
func (db *DB) Update(ctx context.Context, tress *model.Tress) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE tresses
		 SET title = ?, content = ?, language = ?, is_public = ?, expires_at = ?
		 WHERE id = ?`,
		tress.Title,
		tress.Content,
		tress.Language,
		tress.IsPublic,
		nullTime(tress.ExpiresAt),
		tress.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating tress %s: %w", tress.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("tress", tress.ID)
	}

	return nil
}

// Delete removes a tress permanently. No tombstone is kept.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM tresses WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting tress %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("tress", id)
	}

	return nil
}

// DeleteExpired bulk-deletes every tress past its expiry in a single
// statement, which SQLite applies atomically. Returns the row count for
// the reaper's log line.
func (db *DB) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM tresses WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting expired tresses: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return deleted, nil
}

// listTresses runs a multi-row tress query and scans the results.
func (db *DB) listTresses(ctx context.Context, query string, args ...any) ([]model.Tress, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tresses: %w", err)
	}
	defer rows.Close()

	var tresses []model.Tress
	for rows.Next() {
		tress, err := scanTress(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning tress row: %w", err)
		}
		tresses = append(tresses, *tress)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tresses: %w", err)
	}

	if tresses == nil {
		tresses = []model.Tress{}
	}
	return tresses, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTress reads one row in tressColumns order, converting the nullable
// owner_id/expires_at columns to pointers.
func scanTress(s scanner) (*model.Tress, error) {
	var (
		tress     model.Tress
		ownerID   sql.NullString
		expiresAt sql.NullTime
	)
	err := s.Scan(
		&tress.ID,
		&tress.Title,
		&tress.Content,
		&tress.Language,
		&tress.IsPublic,
		&ownerID,
		&tress.OwnerUsername,
		&tress.CreatedAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}
	if ownerID.Valid {
		tress.OwnerID = &ownerID.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		tress.ExpiresAt = &t
	}
	return &tress, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
