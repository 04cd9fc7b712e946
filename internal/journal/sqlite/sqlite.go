package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"github.com/markuphq/markup/internal/journal"
	"github.com/markuphq/markup/internal/operation"

	_ "github.com/mattn/go-sqlite3"
)

const (
	CREATE_TABLE_STATEMENT = `
	CREATE TABLE IF NOT EXISTS operations (
		id         TEXT UNIQUE,
		sort_id    INTEGER PRIMARY KEY AUTOINCREMENT,
		step       TEXT,
		kind       TEXT,
		handle_id  TEXT,
		name       TEXT,
		state      TEXT,
		attempts   INTEGER DEFAULT 0,
		reason     TEXT,
		created_on INTEGER,
		updated_on INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_operations_id ON operations(id);`

	OPERATION_INSERT_STATEMENT = `
	INSERT INTO operations
		(id, step, kind, handle_id, name, state, attempts, reason, created_on, updated_on)
	VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	OPERATION_UPDATE_STATEMENT = `
	UPDATE
		operations
	SET
		state = ?, attempts = ?, reason = ?, updated_on = ?
	WHERE
		id = ?`

	OPERATION_SELECT_STATEMENT = `
	SELECT
		id, step, kind, handle_id, name, state, attempts, reason, created_on, updated_on
	FROM
		operations
	WHERE
		id = ?`

	OPERATION_SELECT_ALL_STATEMENT = `
	SELECT
		id, step, kind, handle_id, name, state, attempts, reason, created_on, updated_on
	FROM
		operations
	ORDER BY
		sort_id DESC
	LIMIT
		?`
)

type Config struct {
	Path      string        `flag:"path" desc:"sqlite database path" default:"markup.db"`
	TxTimeout time.Duration `flag:"tx-timeout" desc:"sqlite transaction timeout" default:"10s"`
	Reset     bool          `flag:"reset" desc:"reset sqlite db on shutdown" default:"false"`
}

type SqliteStore struct {
	config *Config
	db     *sql.DB
}

func New(config *Config) (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, err
	}

	// every connection to :memory: opens a separate database
	db.SetMaxOpenConns(1)

	return &SqliteStore{
		config: config,
		db:     db,
	}, nil
}

func (s *SqliteStore) String() string {
	return "journal:sqlite"
}

func (s *SqliteStore) Start() error {
	if _, err := s.db.Exec(CREATE_TABLE_STATEMENT); err != nil {
		return err
	}

	return nil
}

func (s *SqliteStore) Stop() error {
	if s.config.Reset {
		if err := s.Reset(); err != nil {
			return err
		}
	}

	return s.db.Close()
}

func (s *SqliteStore) Reset() error {
	if _, err := os.Stat(s.config.Path); err != nil {
		return nil
	}

	return os.Remove(s.config.Path)
}

func (s *SqliteStore) Insert(ctx context.Context, r *journal.Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.TxTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, OPERATION_INSERT_STATEMENT,
		r.ID, r.Step, string(r.Kind), r.HandleID, r.Name, string(r.State), r.Attempts, r.Reason, r.CreatedOn, r.UpdatedOn)
	return err
}

func (s *SqliteStore) Update(ctx context.Context, r *journal.Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.TxTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, OPERATION_UPDATE_STATEMENT, string(r.State), r.Attempts, r.Reason, r.UpdatedOn, r.ID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return journal.ErrNotFound
	}
	return nil
}

func (s *SqliteStore) Get(ctx context.Context, id string) (*journal.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.TxTimeout)
	defer cancel()

	r, err := scan(s.db.QueryRowContext(ctx, OPERATION_SELECT_STATEMENT, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, journal.ErrNotFound
	}
	return r, err
}

func (s *SqliteStore) List(ctx context.Context, limit int) ([]*journal.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.TxTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, OPERATION_SELECT_ALL_STATEMENT, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*journal.Record
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*journal.Record, error) {
	var (
		r     journal.Record
		kind  string
		state string
	)
	if err := row.Scan(&r.ID, &r.Step, &kind, &r.HandleID, &r.Name, &state, &r.Attempts, &r.Reason, &r.CreatedOn, &r.UpdatedOn); err != nil {
		return nil, err
	}
	r.Kind = operation.Kind(kind)
	r.State = journal.State(state)
	return &r, nil
}
