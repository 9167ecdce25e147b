package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"CryptoSentinel/internal/logger"
	"CryptoSentinel/internal/model"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists recommendation snapshots to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logger.Logger
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logger.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = logger.Nop()
	}
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while refreshes write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", logger.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recommendation_snapshots (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id     TEXT NOT NULL,
			timestamp       INTEGER NOT NULL,
			asset_id        TEXT NOT NULL,
			symbol          TEXT,
			current_price   REAL,
			change_24h      REAL,
			predicted_price REAL,
			label           TEXT,
			score           INTEGER,
			mode            TEXT,
			history_error   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reco_ts ON recommendation_snapshots(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_reco_asset ON recommendation_snapshots(asset_id, timestamp)`,

		`CREATE TABLE IF NOT EXISTS refresh_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			snapshot_id TEXT,
			provider    TEXT,
			source      TEXT,
			assets      INTEGER,
			buy         INTEGER,
			sell        INTEGER,
			hold        INTEGER,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_ts ON refresh_runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSnapshot stores one row per asset in a single transaction.
func (r *SQLiteRecorder) RecordSnapshot(snap *model.BoardSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO recommendation_snapshots
		(snapshot_id, timestamp, asset_id, symbol, current_price, change_24h,
		 predicted_price, label, score, mode, history_error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	ts := snap.GeneratedAt.Unix()
	for _, a := range snap.Assets {
		if _, err := stmt.Exec(
			snap.ID, ts, a.Quote.ID, a.Quote.Symbol,
			nullable(a.Quote.CurrentPrice), nullable(a.Quote.PriceChange24h), nullable(a.PredictedPrice),
			string(a.Recommendation.Label), a.Recommendation.Score, string(a.Recommendation.Mode),
			a.HistoryErr,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", a.Quote.ID, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordRefresh(evt *RefreshEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errText string
	if evt.Err != nil {
		errText = evt.Err.Error()
	}
	_, err := r.db.Exec(`INSERT INTO refresh_runs
		(timestamp, snapshot_id, provider, source, assets, buy, sell, hold, duration_ms, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		r.now().Unix(), evt.SnapshotID, evt.Provider, evt.Trigger,
		evt.Assets, evt.Buy, evt.Sell, evt.Hold,
		evt.Duration.Milliseconds(), errText,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

func nullable(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
