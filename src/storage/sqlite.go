package storage

import (
	"database/sql"
	"fmt"
	"time"

	"market-pulse/src/interfaces"
	"market-pulse/src/logger"
	"market-pulse/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MStorageConfig
	DB     *sql.DB
	Logger *logger.Logger
}

var _ interfaces.IDatabase = (*SQLiteDB)(nil)

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MStorageConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.DBPath)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// Archive table, never dropped. SQLite types: INTEGER for int64, REAL for
	// float64, TEXT for string.
	query := `
		CREATE TABLE IF NOT EXISTS quote_snapshots (
			symbol TEXT,
			timestamp INTEGER,
			price REAL,
			change REAL,
			percent_change REAL,
			volume REAL,
			day_open REAL,
			day_high REAL,
			day_low REAL,
			previous_close REAL,
			source TEXT,
			PRIMARY KEY (symbol, timestamp)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create quote_snapshots: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveSnapshotsBulk(snapshots []models.MInstrumentSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO quote_snapshots (symbol, timestamp, price, change, percent_change, volume, day_open, day_high, day_low, previous_close, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, timestamp) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range snapshots {
		_, err := stmt.Exec(s.Symbol, s.Timestamp, s.Price, s.Change, s.PercentChange,
			s.Volume, s.DayOpen, s.DayHigh, s.DayLow, s.PreviousClose, s.Source)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) CleanupOldData() error {
	if d.Config.RetentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -d.Config.RetentionDays).Unix()
	result, err := d.DB.Exec("DELETE FROM quote_snapshots WHERE timestamp < ?", cutoff)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		d.Logger.Info("Cleaned up %d archived snapshots", rows)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
