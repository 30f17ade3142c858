package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createCoursesTable(ctx, db); err != nil {
		return err
	}
	return createCourseAliasesTable(ctx, db)
}

func createCoursesTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS courses (
		user_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, position)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_courses_user_name ON courses(user_id, name COLLATE NOCASE);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create courses table: %w", err)
	}
	return nil
}

func createCourseAliasesTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS course_aliases (
		user_id TEXT NOT NULL,
		alias TEXT NOT NULL,
		canonical TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, alias)
	);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create course_aliases table: %w", err)
	}
	return nil
}
