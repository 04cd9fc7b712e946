package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/markuphq/markup/internal/journal"
	"github.com/markuphq/markup/internal/operation"

	_ "github.com/lib/pq"
)

const (
	CREATE_TABLE_STATEMENT = `
	CREATE TABLE IF NOT EXISTS operations (
		id         TEXT,
		sort_id    SERIAL,
		step       TEXT,
		kind       TEXT,
		handle_id  TEXT,
		name       TEXT,
		state      TEXT,
		attempts   INTEGER DEFAULT 0,
		reason     TEXT,
		created_on BIGINT,
		updated_on BIGINT,
		PRIMARY KEY(id)
	);

	CREATE INDEX IF NOT EXISTS idx_operations_sort_id ON operations(sort_id);`

	DROP_TABLE_STATEMENT = `
	DROP TABLE operations;`

	OPERATION_INSERT_STATEMENT = `
	INSERT INTO operations
		(id, step, kind, handle_id, name, state, attempts, reason, created_on, updated_on)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	OPERATION_UPDATE_STATEMENT = `
	UPDATE
		operations
	SET
		state = $1, attempts = $2, reason = $3, updated_on = $4
	WHERE
		id = $5`

	OPERATION_SELECT_STATEMENT = `
	SELECT
		id, step, kind, handle_id, name, state, attempts, reason, created_on, updated_on
	FROM
		operations
	WHERE
		id = $1`

	OPERATION_SELECT_ALL_STATEMENT = `
	SELECT
		id, step, kind, handle_id, name, state, attempts, reason, created_on, updated_on
	FROM
		operations
	ORDER BY
		sort_id DESC
	LIMIT
		$1`
)

type Config struct {
	Host      string            `flag:"host" desc:"postgres host" default:"localhost"`
	Port      string            `flag:"port" desc:"postgres port" default:"5432"`
	Username  string            `flag:"username" desc:"postgres username" default:""`
	Password  string            `flag:"password" desc:"postgres password" default:""`
	Database  string            `flag:"database" desc:"postgres database name" default:"markup"`
	Query     map[string]string `flag:"query" desc:"postgres connection options" default:"{\"sslmode\":\"disable\"}"`
	TxTimeout time.Duration     `flag:"tx-timeout" desc:"postgres transaction timeout" default:"10s"`
	Reset     bool              `flag:"reset" desc:"drop the journal table on shutdown" default:"false"`
}

type PostgresStore struct {
	config *Config
	db     *sql.DB
}

func New(config *Config) (*PostgresStore, error) {
	rawQuery := url.Values{}
	for k, v := range config.Query {
		rawQuery.Set(k, v)
	}

	dbUrl := &url.URL{
		User:     url.UserPassword(config.Username, config.Password),
		Host:     fmt.Sprintf("%s:%s", config.Host, config.Port),
		Path:     config.Database,
		Scheme:   "postgres",
		RawQuery: rawQuery.Encode(),
	}

	db, err := sql.Open("postgres", dbUrl.String())
	if err != nil {
		return nil, err
	}

	return &PostgresStore{
		config: config,
		db:     db,
	}, nil
}

func (s *PostgresStore) String() string {
	return "journal:postgres"
}

func (s *PostgresStore) Start() error {
	if _, err := s.db.Exec(CREATE_TABLE_STATEMENT); err != nil {
		return err
	}

	return nil
}

func (s *PostgresStore) Stop() error {
	if s.config.Reset {
		if err := s.Reset(); err != nil {
			return err
		}
	}

	return s.db.Close()
}

func (s *PostgresStore) Reset() error {
	if _, err := s.db.Exec(DROP_TABLE_STATEMENT); err != nil {
		return err
	}

	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, r *journal.Record) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.TxTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, OPERATION_INSERT_STATEMENT,
		r.ID, r.Step, string(r.Kind), r.HandleID, r.Name, string(r.State), r.Attempts, r.Reason, r.CreatedOn, r.UpdatedOn)
	return err
}

func (s *PostgresStore) Update(ctx context.Context, r *journal.Record) error {
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

func (s *PostgresStore) Get(ctx context.Context, id string) (*journal.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.TxTimeout)
	defer cancel()

	r, err := scan(s.db.QueryRowContext(ctx, OPERATION_SELECT_STATEMENT, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, journal.ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*journal.Record, error) {
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
