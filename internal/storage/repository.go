package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/garyellow/companion-nlu-go/internal/errors"
	"github.com/garyellow/companion-nlu-go/internal/sliceutil"
)

// ReplaceCourses replaces a user's roster with names, in order. Blank and
// case-insensitive duplicate names are dropped.
func (db *DB) ReplaceCourses(ctx context.Context, userID string, names []string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: empty user id", apperrors.ErrInvalidInput)
	}
	names = sliceutil.Deduplicate(sliceutil.Compact(names), sliceutil.FoldKey)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear courses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO courses (user_id, position, name, updated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for i, name := range names {
		if _, err := stmt.ExecContext(ctx, userID, i, name, now); err != nil {
			return fmt.Errorf("failed to insert course %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit courses: %w", err)
	}
	return nil
}

// ListCourses returns a user's roster in stored order.
func (db *DB) ListCourses(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name FROM courses WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	return scanStrings(rows)
}

// SearchCourses returns the user's courses whose name contains term,
// case-insensitively.
func (db *DB) SearchCourses(ctx context.Context, userID, term string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT name FROM courses WHERE user_id = ? AND name LIKE ? ESCAPE '\' ORDER BY position`,
		userID, "%"+sanitizeSearchTerm(term)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search courses: %w", err)
	}
	return scanStrings(rows)
}

// PutAlias stores a user alias; the alias is matched case-insensitively.
func (db *DB) PutAlias(ctx context.Context, userID, alias, canonical string) error {
	alias = strings.ToLower(strings.TrimSpace(alias))
	canonical = strings.TrimSpace(canonical)
	if userID == "" || alias == "" || canonical == "" {
		return fmt.Errorf("%w: user id, alias and course are required", apperrors.ErrInvalidInput)
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO course_aliases (user_id, alias, canonical, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, alias) DO UPDATE SET canonical = excluded.canonical, updated_at = excluded.updated_at`,
		userID, alias, canonical, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save alias: %w", err)
	}
	return nil
}

// DeleteAlias removes a user alias. Removing an unknown alias returns
// ErrNotFound.
func (db *DB) DeleteAlias(ctx context.Context, userID, alias string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM course_aliases WHERE user_id = ? AND alias = ?`,
		userID, strings.ToLower(strings.TrimSpace(alias)))
	if err != nil {
		return fmt.Errorf("failed to delete alias: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete alias: %w", err)
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListAliases returns a user's aliases keyed by lowercase alias.
func (db *DB) ListAliases(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT alias, canonical FROM course_aliases WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	aliases := make(map[string]string)
	for rows.Next() {
		var alias, canonical string
		if err := rows.Scan(&alias, &canonical); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases[alias] = canonical
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aliases: %w", err)
	}
	return aliases, nil
}

// Roster returns a user's course names and aliases together.
func (db *DB) Roster(ctx context.Context, userID string) ([]string, map[string]string, error) {
	names, err := db.ListCourses(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	aliases, err := db.ListAliases(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return names, aliases, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return out, nil
}
