package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/hvaldez/taskmovil/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite
// database.
type SQLiteStore struct {
	db *sqlx.DB
}

// taskRow is the database representation of a cached task.
type taskRow struct {
	ID             string       `db:"id"`
	Title          string       `db:"title"`
	Description    string       `db:"description"`
	Status         string       `db:"status"`
	Priority       string       `db:"priority"`
	AssigneeID     string       `db:"assignee_id"`
	AssigneeName   string       `db:"assignee_name"`
	DueDate        sql.NullTime `db:"due_date"`
	CreatedAt      sql.NullTime `db:"created_at"`
	UpdatedAt      sql.NullTime `db:"updated_at"`
	OrganizationID string       `db:"organization_id"`
	FetchedAt      sql.NullTime `db:"fetched_at"`
}

// toModel converts a database row to the wire model.
func (r taskRow) toModel() model.Task {
	return model.Task{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		Priority:       r.Priority,
		AssigneeID:     r.AssigneeID,
		AssigneeName:   r.AssigneeName,
		DueDate:        r.DueDate.Time,
		CreatedAt:      r.CreatedAt.Time,
		UpdatedAt:      r.UpdatedAt.Time,
		OrganizationID: r.OrganizationID,
		FetchedAt:      r.FetchedAt.Time,
	}
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations. Parent
// directories are created as needed; on a fresh install none exist yet.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertTasks inserts or replaces a batch of fetched tasks.
func (s *SQLiteStore) UpsertTasks(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO tasks (
			id, title, description, status, priority,
			assignee_id, assignee_name, due_date,
			created_at, updated_at, organization_id, fetched_at
		) VALUES (
			?, ?, ?, ?, ?,
			?, ?, ?,
			?, ?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		_, err = stmt.ExecContext(ctx,
			t.ID, t.Title, t.Description, t.Status, t.Priority,
			t.AssigneeID, t.AssigneeName, t.DueDate.UTC(),
			t.CreatedAt.UTC(), t.UpdatedAt.UTC(), t.OrganizationID, t.FetchedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("upserting task %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// GetTasks retrieves cached tasks matching the provided filter options.
func (s *SQLiteStore) GetTasks(
	ctx context.Context,
	opts TaskFilter,
) ([]model.Task, error) {
	var conditions []string
	var args []interface{}

	if opts.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *opts.Status)
	}
	if opts.Priority != nil {
		conditions = append(conditions, "priority = ?")
		args = append(args, *opts.Priority)
	}
	if opts.AssigneeID != nil {
		conditions = append(conditions, "assignee_id = ?")
		args = append(args, *opts.AssigneeID)
	}
	if opts.Query != nil && *opts.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		q := "%" + *opts.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT * FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "due_date"
	if opts.SortBy != "" {
		allowedSorts := map[string]bool{
			"title":      true,
			"status":     true,
			"priority":   true,
			"due_date":   true,
			"created_at": true,
			"updated_at": true,
		}
		if allowedSorts[opts.SortBy] {
			sortBy = opts.SortBy
		}
	}

	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toModel())
	}

	return tasks, nil
}

// GetTaskByID retrieves a single cached task, nil if not cached.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM tasks WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying task %s: %w", id, err)
	}

	task := row.toModel()
	return &task, nil
}
