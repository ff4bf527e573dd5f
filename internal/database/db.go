package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jgoulah/bandwidthscraper/pkg/models"
	_ "modernc.org/sqlite"
)

// DB wraps the run journal connection
type DB struct {
	conn *sql.DB
}

// New opens the journal and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		branch TEXT NOT NULL,
		status TEXT NOT NULL,
		chart TEXT,
		size INTEGER DEFAULT 0,
		error TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(run_id, branch)
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_created_at ON deliveries(created_at);
	CREATE INDEX IF NOT EXISTS idx_deliveries_status ON deliveries(status);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// RecordDelivery stores the outcome of one branch; a repeated run/branch pair replaces the earlier row
func (db *DB) RecordDelivery(ctx context.Context, d models.Delivery) error {
	query := `
	INSERT OR REPLACE INTO deliveries (run_id, branch, status, chart, size, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx, query,
		d.RunID, string(d.Branch), d.Status, d.Chart, d.Size, d.Error,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting delivery: %w", err)
	}

	return nil
}

// ListDeliveries returns the most recent journal entries, newest first. A limit of 0 returns all rows.
func (db *DB) ListDeliveries(ctx context.Context, limit int) ([]models.Delivery, error) {
	query := `
	SELECT id, run_id, branch, status, chart, size, error, created_at
	FROM deliveries
	ORDER BY created_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying deliveries: %w", err)
	}
	defer rows.Close()

	var results []models.Delivery
	for rows.Next() {
		var d models.Delivery
		var branch, createdAt string
		var chart, errText sql.NullString

		if err := rows.Scan(&d.ID, &d.RunID, &branch, &d.Status, &chart, &d.Size, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		d.Branch = models.Granularity(branch)
		d.Chart = chart.String
		d.Error = errText.String
		d.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		results = append(results, d)
	}

	return results, rows.Err()
}

// CountByStatus tallies journal entries per status
func (db *DB) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM deliveries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting deliveries: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		counts[status] = n
	}

	return counts, rows.Err()
}
