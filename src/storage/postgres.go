package storage

import (
	"database/sql"
	"fmt"
	"time"

	"market-pulse/src/interfaces"
	"market-pulse/src/logger"
	"market-pulse/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MStorageConfig
	DB     *sql.DB
	Logger *logger.Logger
}

var _ interfaces.IDatabase = (*PostgresDB)(nil)

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MStorageConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	db, err := sql.Open("postgres", d.Config.DBConnectionString)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS quote_snapshots (
			symbol TEXT,
			timestamp BIGINT,
			price DOUBLE PRECISION,
			change DOUBLE PRECISION,
			percent_change DOUBLE PRECISION,
			volume DOUBLE PRECISION,
			day_open DOUBLE PRECISION,
			day_high DOUBLE PRECISION,
			day_low DOUBLE PRECISION,
			previous_close DOUBLE PRECISION,
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

func (d *PostgresDB) SaveSnapshotsBulk(snapshots []models.MInstrumentSnapshot) error {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
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

func (d *PostgresDB) CleanupOldData() error {
	if d.Config.RetentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -d.Config.RetentionDays).Unix()
	result, err := d.DB.Exec("DELETE FROM quote_snapshots WHERE timestamp < $1", cutoff)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		d.Logger.Info("Cleaned up %d archived snapshots", rows)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// -----------------------------------------------------------------------------
// Factory
// -----------------------------------------------------------------------------

// NewDatabase picks the archive backend from config
func NewDatabase(cfg *models.MStorageConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	switch cfg.DBType {
	case "sqlite":
		return NewSQLiteDB(cfg, log)
	case "postgres":
		return NewPostgresDB(cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage db_type: %s", cfg.DBType)
	}
}
