package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists post and run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc reads don't block the bot's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS posts (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			kind        TEXT,
			asset_id    TEXT,
			buyer       TEXT,
			seller      TEXT,
			buyer_tier  TEXT,
			seller_tier TEXT,
			narrative   TEXT,
			price       TEXT,
			symbol      TEXT,
			text        TEXT,
			had_media   INTEGER,
			published   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_ts ON posts(timestamp)`,

		`CREATE TABLE IF NOT EXISTS runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			run_id    TEXT,
			fetched   INTEGER,
			attempted INTEGER,
			published INTEGER,
			skipped   INTEGER,
			failed    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPost(rec *PostRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO posts
		(timestamp, kind, asset_id, buyer, seller, buyer_tier, seller_tier,
		 narrative, price, symbol, text, had_media, published)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.Kind, rec.AssetID, rec.Buyer, rec.Seller,
		rec.BuyerTier, rec.SellerTier, rec.Narrative, rec.Price, rec.Symbol,
		rec.Text, rec.HadMedia, rec.Published,
	)
	return err
}

func (r *SQLiteRecorder) RecordRun(rec *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO runs
		(timestamp, run_id, fetched, attempted, published, skipped, failed)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), rec.RunID, rec.Fetched,
		rec.Attempted, rec.Published, rec.Skipped, rec.Failed,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
