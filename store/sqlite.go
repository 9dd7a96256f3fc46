// Package store persists simulation results to SQLite databases.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/icachesim/cache"
	"github.com/sarchlab/icachesim/emu"
)

// Run is one stored simulation run.
type Run struct {
	ID                  string
	Program             string
	Config              cache.Config
	InstructionsRetired uint64
	Hits                uint64
	Misses              uint64
	Status              string
}

type accessRow struct {
	runID string
	stats emu.AddrStats
}

// SQLiteWriter writes simulation results to a SQLite database. Per-address
// rows are buffered and inserted in batches.
type SQLiteWriter struct {
	*sql.DB
	runStatement    *sql.Stmt
	accessStatement *sql.Stmt

	dbName    string
	pending   []accessRow
	batchSize int
}

// NewSQLiteWriter creates a writer for the database at path. An empty path
// names a fresh database after a generated ID. Buffered rows are flushed
// when the program exits through atexit.
func NewSQLiteWriter(path string) *SQLiteWriter {
	w := &SQLiteWriter{
		dbName:    path,
		batchSize: 10000,
	}

	atexit.Register(func() { _ = w.Flush() })

	return w
}

// Name returns the database file name. It is set by Init.
func (w *SQLiteWriter) Name() string {
	return w.dbName
}

// Init opens the database and creates the tables if they do not exist.
func (w *SQLiteWriter) Init() error {
	if w.dbName == "" {
		w.dbName = "icachesim_" + xid.New().String()
	}
	if filepath.Ext(w.dbName) == "" {
		w.dbName += ".sqlite3"
	}

	db, err := sql.Open("sqlite3", w.dbName)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", w.dbName, err)
	}
	w.DB = db

	if err := w.createTables(); err != nil {
		return err
	}

	return w.prepareStatements()
}

// WriteRun stores the summary of a run and buffers its per-address rows. It
// returns the generated run ID.
func (w *SQLiteWriter) WriteRun(
	program string,
	cfg cache.Config,
	result *emu.Result,
) (string, error) {
	id := xid.New().String()

	_, err := w.runStatement.Exec(
		id,
		program,
		cfg.Size,
		cfg.Associativity,
		cfg.BlockSize,
		cfg.AddressWidth,
		result.InstructionsRetired,
		result.TotalHits(),
		result.TotalMisses(),
		result.Status.String(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, row := range result.Rows() {
		w.pending = append(w.pending, accessRow{runID: id, stats: row})
	}

	if len(w.pending) >= w.batchSize {
		if err := w.Flush(); err != nil {
			return "", err
		}
	}

	return id, nil
}

// Flush writes all the buffered rows to the database in one transaction.
func (w *SQLiteWriter) Flush() error {
	if len(w.pending) == 0 {
		return nil
	}

	tx, err := w.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt := tx.Stmt(w.accessStatement)
	for _, row := range w.pending {
		_, err := stmt.Exec(
			row.runID,
			row.stats.Addr,
			row.stats.Mnemonic,
			row.stats.Hits,
			row.stats.Misses,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert access at %x: %w", row.stats.Addr, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	w.pending = nil
	return nil
}

// Close flushes buffered rows and closes the database.
func (w *SQLiteWriter) Close() error {
	if w.DB == nil {
		return nil
	}

	if err := w.Flush(); err != nil {
		return err
	}

	err := w.DB.Close()
	w.DB = nil
	return err
}

func (w *SQLiteWriter) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs
		(
			run_id        VARCHAR(32)  NOT NULL PRIMARY KEY,
			program       VARCHAR(200) NOT NULL,
			size          INTEGER      NOT NULL,
			associativity INTEGER      NOT NULL,
			block_size    INTEGER      NOT NULL,
			address_width INTEGER      NOT NULL,
			retired       INTEGER      NOT NULL,
			hits          INTEGER      NOT NULL,
			misses        INTEGER      NOT NULL,
			status        VARCHAR(100) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS accesses
		(
			run_id      VARCHAR(32) NOT NULL,
			addr        INTEGER     NOT NULL,
			instruction VARCHAR(32) NOT NULL,
			hits        INTEGER     NOT NULL,
			misses      INTEGER     NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS accesses_run_id_index
			ON accesses (run_id);`,
	}

	for _, stmt := range stmts {
		if _, err := w.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

func (w *SQLiteWriter) prepareStatements() error {
	var err error

	w.runStatement, err = w.Prepare(`INSERT INTO runs
		(run_id, program, size, associativity, block_size, address_width,
		retired, hits, misses, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare run statement: %w", err)
	}

	w.accessStatement, err = w.Prepare(`INSERT INTO accesses
		(run_id, addr, instruction, hits, misses)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare access statement: %w", err)
	}

	return nil
}

// SQLiteReader reads simulation results from a SQLite database.
type SQLiteReader struct {
	*sql.DB

	filename string
}

// NewSQLiteReader creates a reader for filename.
func NewSQLiteReader(filename string) *SQLiteReader {
	return &SQLiteReader{filename: filename}
}

// Init establishes a connection to the database.
func (r *SQLiteReader) Init() error {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", r.filename, err)
	}

	r.DB = db
	return nil
}

// ListRuns returns all stored runs in insertion order.
func (r *SQLiteReader) ListRuns() ([]Run, error) {
	rows, err := r.Query(`
		SELECT run_id, program, size, associativity, block_size,
			address_width, retired, hits, misses, status
		FROM runs
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []Run{}
	for rows.Next() {
		var run Run
		err := rows.Scan(
			&run.ID,
			&run.Program,
			&run.Config.Size,
			&run.Config.Associativity,
			&run.Config.BlockSize,
			&run.Config.AddressWidth,
			&run.InstructionsRetired,
			&run.Hits,
			&run.Misses,
			&run.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// ListAccesses returns the per-address rows of a run in listing order.
func (r *SQLiteReader) ListAccesses(runID string) ([]emu.AddrStats, error) {
	rows, err := r.Query(`
		SELECT addr, instruction, hits, misses
		FROM accesses
		WHERE run_id = ?
		ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accesses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accesses := []emu.AddrStats{}
	for rows.Next() {
		var stats emu.AddrStats
		err := rows.Scan(&stats.Addr, &stats.Mnemonic, &stats.Hits, &stats.Misses)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access: %w", err)
		}
		accesses = append(accesses, stats)
	}

	return accesses, rows.Err()
}
