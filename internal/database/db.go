package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jgoulah/pvdash/pkg/models"
	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
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

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS daily_summary (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL UNIQUE,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		generation_minutes INTEGER NOT NULL,
		power_max_w REAL NOT NULL,
		power_avg_w REAL NOT NULL,
		energy_metered_kwh REAL NOT NULL,
		energy_integrated_kwh REAL NOT NULL,
		energy_integrated_interval_kwh REAL NOT NULL,
		energy_error_pct REAL,
		samples INTEGER NOT NULL,
		counter_decreases INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL,
		imported_at TEXT NOT NULL,
		published INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_summary_published ON daily_summary(published);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// UpsertSummaries stores daily summaries in one transaction. A day that is
// already archived is replaced and becomes unpublished again.
func (db *DB) UpsertSummaries(rows []models.DailySummary, source string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO daily_summary (
		date, start_time, end_time, generation_minutes, power_max_w, power_avg_w,
		energy_metered_kwh, energy_integrated_kwh, energy_integrated_interval_kwh,
		energy_error_pct, samples, counter_decreases, source, imported_at, published
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	importedAt := time.Now().UTC().Format(time.RFC3339)
	for _, r := range rows {
		errorPct := sql.NullFloat64{Float64: r.EnergyErrorPct.Float64(), Valid: r.EnergyErrorPct.Valid()}
		_, err := stmt.Exec(r.Date, r.Start, r.End, r.GenerationMinutes, r.PowerMaxW, r.PowerAvgW,
			r.EnergyMeteredKWh, r.EnergyIntegratedKWh, r.EnergyIntegratedByIntervalKWh,
			errorPct, r.Samples, r.CounterDecreases, source, importedAt)
		if err != nil {
			return fmt.Errorf("inserting summary for %s: %w", r.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing summaries: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, date, start_time, end_time, generation_minutes, power_max_w, power_avg_w,
		energy_metered_kwh, energy_integrated_kwh, energy_integrated_interval_kwh,
		energy_error_pct, samples, counter_decreases, source, imported_at, published
	FROM daily_summary
`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row scanner) (models.ArchivedSummary, error) {
	var s models.ArchivedSummary
	var errorPct sql.NullFloat64
	var importedAt string
	var published int

	err := row.Scan(&s.ID, &s.Date, &s.Start, &s.End, &s.GenerationMinutes, &s.PowerMaxW, &s.PowerAvgW,
		&s.EnergyMeteredKWh, &s.EnergyIntegratedKWh, &s.EnergyIntegratedByIntervalKWh,
		&errorPct, &s.Samples, &s.CounterDecreases, &s.Source, &importedAt, &published)
	if err != nil {
		return s, err
	}

	s.EnergyErrorPct = models.Null()
	if errorPct.Valid {
		s.EnergyErrorPct = models.NullFloat(errorPct.Float64)
	}
	s.Published = published != 0

	s.ImportedAt, err = time.Parse(time.RFC3339, importedAt)
	if err != nil {
		return s, fmt.Errorf("parsing imported_at: %w", err)
	}

	return s, nil
}

// GetSummary retrieves the archived summary of a date, or nil when absent
func (db *DB) GetSummary(date string) (*models.ArchivedSummary, error) {
	row := db.conn.QueryRow(selectColumns+`WHERE date = ?`, date)

	s, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}

	return &s, nil
}

// HasData checks if a summary exists for a given date
func (db *DB) HasData(date string) (bool, error) {
	s, err := db.GetSummary(date)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}

// ListSummaries retrieves all archived summaries, newest first
func (db *DB) ListSummaries() ([]models.ArchivedSummary, error) {
	return db.list(selectColumns + `ORDER BY date DESC`)
}

// ListUnpublished retrieves the summaries not yet published, newest first
func (db *DB) ListUnpublished() ([]models.ArchivedSummary, error) {
	return db.list(selectColumns + `WHERE published = 0 ORDER BY date DESC`)
}

func (db *DB) list(query string) ([]models.ArchivedSummary, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	var results []models.ArchivedSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, s)
	}

	return results, rows.Err()
}

// MarkPublished marks an archived summary as published
func (db *DB) MarkPublished(id int) error {
	query := `UPDATE daily_summary SET published = 1 WHERE id = ?`
	_, err := db.conn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("marking record as published: %w", err)
	}
	return nil
}
