// Package store provides an optional SQLite-backed recorder for emitted
// optimization signals. It is an audit log of engine output with a retention
// policy, not a measurement warehouse; the engine works identically with the
// recorder disabled.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"k8s.io/klog/v2"

	"github.com/elevated-systems/grid-signal-engine/pkg/gridsignal/decision"
)

// Recorder persists emitted signals locally
type Recorder struct {
	db       *sql.DB
	dbPath   string
	mutex    sync.Mutex
	prepared map[string]*sql.Stmt
}

// SignalRecord is one persisted optimization signal
type SignalRecord struct {
	Timestamp          time.Time
	Region             string
	Kind               string
	Recommendation     string
	CleanEnergyPercent float64
	CurrentValue       float64
	ForecastAverage    float64
	Reason             string
}

// NewRecorder opens (or creates) the signal database at dbPath
func NewRecorder(dbPath string) (*Recorder, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_sync=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	r := &Recorder{
		db:       db,
		dbPath:   dbPath,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %v", err)
	}

	if err := r.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %v", err)
	}

	return r, nil
}

func (r *Recorder) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		region TEXT NOT NULL,
		kind TEXT NOT NULL,
		recommendation TEXT NOT NULL,
		clean_energy_percent REAL NOT NULL,
		current_value REAL NOT NULL,
		forecast_average REAL NOT NULL,
		reason TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_signals_region_timestamp ON signals(region, timestamp);
	CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

func (r *Recorder) prepareStatements() error {
	statements := map[string]string{
		"insert": `
			INSERT INTO signals (
				timestamp, region, kind, recommendation, clean_energy_percent,
				current_value, forecast_average, reason
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
		"select_range": `
			SELECT timestamp, region, kind, recommendation, clean_energy_percent,
				   current_value, forecast_average, reason
			FROM signals
			WHERE region = ? AND timestamp BETWEEN ? AND ?
			ORDER BY timestamp ASC
		`,
		"cleanup": `
			DELETE FROM signals
			WHERE created_at < ?
		`,
	}

	for name, query := range statements {
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %v", name, err)
		}
		r.prepared[name] = stmt
	}

	return nil
}

// RecordSignal persists one emitted signal
func (r *Recorder) RecordSignal(regionCode, kind string, signal *decision.Signal) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	_, err := r.prepared["insert"].Exec(
		signal.Timestamp.UTC(),
		regionCode,
		kind,
		string(signal.Recommendation),
		signal.CleanEnergyPercent,
		signal.CurrentValue,
		signal.ForecastAverage,
		signal.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to record signal: %v", err)
	}

	klog.V(4).InfoS("Recorded signal",
		"region", regionCode,
		"kind", kind,
		"recommendation", signal.Recommendation)

	return nil
}

// Signals returns persisted signals for a region within [start, end]
func (r *Recorder) Signals(regionCode string, start, end time.Time) ([]SignalRecord, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rows, err := r.prepared["select_range"].Query(regionCode, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %v", err)
	}
	defer rows.Close()

	var records []SignalRecord
	for rows.Next() {
		var rec SignalRecord
		if err := rows.Scan(
			&rec.Timestamp, &rec.Region, &rec.Kind, &rec.Recommendation,
			&rec.CleanEnergyPercent, &rec.CurrentValue, &rec.ForecastAverage, &rec.Reason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan signal row: %v", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Cleanup deletes signals older than retentionDays
func (r *Recorder) Cleanup(retentionDays int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	result, err := r.prepared["cleanup"].Exec(cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up old signals: %v", err)
	}

	if deleted, err := result.RowsAffected(); err == nil && deleted > 0 {
		klog.V(3).InfoS("Pruned old signals", "deleted", deleted, "cutoff", cutoff)
	}

	return nil
}

// Close releases the database handle and prepared statements
func (r *Recorder) Close() error {
	for _, stmt := range r.prepared {
		stmt.Close()
	}
	return r.db.Close()
}
