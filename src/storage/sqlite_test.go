package storage

import (
	"path/filepath"
	"testing"
	"time"

	"market-pulse/src/logger"
	"market-pulse/src/models"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func newTestDB(t *testing.T, retentionDays int) *SQLiteDB {
	t.Helper()

	cfg := &models.MStorageConfig{
		Enabled:       true,
		DBType:        "sqlite",
		DBPath:        filepath.Join(t.TempDir(), "archive.db"),
		RetentionDays: retentionDays,
	}

	db, err := NewSQLiteDB(cfg, logger.NewNop("test"))
	if err != nil {
		t.Fatalf("NewSQLiteDB failed: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db *SQLiteDB) int {
	t.Helper()

	var count int
	if err := db.DB.QueryRow("SELECT COUNT(*) FROM quote_snapshots").Scan(&count); err != nil {
		t.Fatalf("Count query failed: %v", err)
	}
	return count
}

func archiveSnap(symbol string, ts int64, price float64) models.MInstrumentSnapshot {
	return models.MInstrumentSnapshot{
		Symbol:    symbol,
		Price:     price,
		Volume:    1000,
		Source:    "universe",
		Timestamp: ts,
	}
}

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestSQLite_SaveSnapshotsBulk(t *testing.T) {
	db := newTestDB(t, 7)
	now := time.Now().Unix()

	err := db.SaveSnapshotsBulk([]models.MInstrumentSnapshot{
		archiveSnap("AAPL", now, 199.5),
		archiveSnap("MSFT", now, 410.2),
	})
	if err != nil {
		t.Fatalf("SaveSnapshotsBulk failed: %v", err)
	}

	if got := countRows(t, db); got != 2 {
		t.Errorf("Expected 2 archived rows, got %d", got)
	}

	var price float64
	err = db.DB.QueryRow("SELECT price FROM quote_snapshots WHERE symbol = ?", "AAPL").Scan(&price)
	if err != nil {
		t.Fatalf("Row lookup failed: %v", err)
	}
	if price != 199.5 {
		t.Errorf("Expected price 199.5, got %v", price)
	}
}

func TestSQLite_DuplicateSnapshotsIgnored(t *testing.T) {
	db := newTestDB(t, 7)
	batch := []models.MInstrumentSnapshot{archiveSnap("AAPL", time.Now().Unix(), 199.5)}

	if err := db.SaveSnapshotsBulk(batch); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := db.SaveSnapshotsBulk(batch); err != nil {
		t.Fatalf("Replaying the same batch must not error: %v", err)
	}

	if got := countRows(t, db); got != 1 {
		t.Errorf("Duplicate (symbol, timestamp) must be ignored, got %d rows", got)
	}
}

func TestSQLite_SaveEmptyBatch(t *testing.T) {
	db := newTestDB(t, 7)

	if err := db.SaveSnapshotsBulk(nil); err != nil {
		t.Fatalf("Empty batch must be a no-op, got %v", err)
	}
	if got := countRows(t, db); got != 0 {
		t.Errorf("Expected no rows, got %d", got)
	}
}

func TestSQLite_CleanupOldData(t *testing.T) {
	db := newTestDB(t, 7)
	now := time.Now()

	err := db.SaveSnapshotsBulk([]models.MInstrumentSnapshot{
		archiveSnap("AAPL", now.AddDate(0, 0, -10).Unix(), 180.0),
		archiveSnap("AAPL", now.Unix(), 199.5),
	})
	if err != nil {
		t.Fatalf("SaveSnapshotsBulk failed: %v", err)
	}

	if err := db.CleanupOldData(); err != nil {
		t.Fatalf("CleanupOldData failed: %v", err)
	}

	if got := countRows(t, db); got != 1 {
		t.Fatalf("Expected only the fresh row to survive, got %d", got)
	}

	var ts int64
	if err := db.DB.QueryRow("SELECT timestamp FROM quote_snapshots").Scan(&ts); err != nil {
		t.Fatalf("Row lookup failed: %v", err)
	}
	if ts != now.Unix() {
		t.Errorf("Wrong row survived cleanup, timestamp %d", ts)
	}
}

func TestSQLite_CleanupDisabledWithoutRetention(t *testing.T) {
	db := newTestDB(t, 0)

	err := db.SaveSnapshotsBulk([]models.MInstrumentSnapshot{
		archiveSnap("AAPL", time.Now().AddDate(0, 0, -30).Unix(), 150.0),
	})
	if err != nil {
		t.Fatalf("SaveSnapshotsBulk failed: %v", err)
	}

	if err := db.CleanupOldData(); err != nil {
		t.Fatalf("CleanupOldData failed: %v", err)
	}
	if got := countRows(t, db); got != 1 {
		t.Errorf("Retention 0 must keep everything, got %d rows", got)
	}
}

func TestNewDatabase_Factory(t *testing.T) {
	cfg := &models.MStorageConfig{
		DBType: "sqlite",
		DBPath: filepath.Join(t.TempDir(), "archive.db"),
	}

	db, err := NewDatabase(cfg, logger.NewNop("test"))
	if err != nil {
		t.Fatalf("Factory rejected sqlite: %v", err)
	}
	if _, ok := db.(*SQLiteDB); !ok {
		t.Errorf("Expected a *SQLiteDB, got %T", db)
	}

	cfg.DBType = "mongodb"
	if _, err := NewDatabase(cfg, logger.NewNop("test")); err == nil {
		t.Errorf("Unknown db_type must be rejected")
	}
}
