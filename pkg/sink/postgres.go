package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/ajitpratap0/csvconf/pkg/errors"
	jsonpool "github.com/ajitpratap0/csvconf/pkg/json"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DefaultTable is the PostgreSQL table used when none is configured.
const DefaultTable = "csvconf_assets"

// Execer is the subset of pgxpool.Pool used by PostgresSink.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresSink upserts one row per slot into a jsonb table:
//
//	slot TEXT PRIMARY KEY, revision UUID, columns JSONB, records JSONB, stored_at TIMESTAMPTZ
type PostgresSink struct {
	db      Execer
	table   string
	close   func()
	mu      sync.Mutex
	ensured bool
	logger  *zap.Logger
}

// NewPostgresSink creates a sink over an existing connection or pool. The
// table is created on first use.
func NewPostgresSink(db Execer, table string) *PostgresSink {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSink{
		db:     db,
		table:  table,
		logger: logger.Get().With(zap.String("component", "postgres_sink"), zap.String("table", table)),
	}
}

// DialPostgres opens a connection pool for dsn.
func DialPostgres(ctx context.Context, dsn, table string) (*PostgresSink, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid postgres dsn")
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to reach postgres")
	}
	s := NewPostgresSink(pool, table)
	s.close = pool.Close
	return s, nil
}

func (s *PostgresSink) ident() string {
	return pgx.Identifier{s.table}.Sanitize()
}

func (s *PostgresSink) ensureTable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	slot TEXT PRIMARY KEY,
	revision UUID NOT NULL,
	columns JSONB NOT NULL,
	records JSONB NOT NULL,
	stored_at TIMESTAMPTZ NOT NULL
)`, s.ident())
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to create table "+s.table)
	}
	s.ensured = true
	return nil
}

// Store upserts the slot's row.
func (s *PostgresSink) Store(ctx context.Context, slot string, ds *materialize.Dataset) error {
	asset, err := NewAsset(slot, ds)
	if err != nil {
		return err
	}
	if err := s.ensureTable(ctx); err != nil {
		return err
	}

	columns, err := jsonpool.Marshal(asset.Columns)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode columns of "+slot)
	}
	records, err := jsonpool.Marshal(asset.Records)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode records of "+slot)
	}

	upsert := fmt.Sprintf(`INSERT INTO %s (slot, revision, columns, records, stored_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (slot) DO UPDATE SET
	revision = EXCLUDED.revision,
	columns = EXCLUDED.columns,
	records = EXCLUDED.records,
	stored_at = EXCLUDED.stored_at`, s.ident())
	if _, err := s.db.Exec(ctx, upsert, asset.Slot, asset.Revision, string(columns), string(records), asset.StoredAt); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to upsert slot "+slot)
	}
	s.logger.Info("slot stored",
		zap.String("slot", slot),
		zap.String("revision", asset.Revision),
		zap.Int("records", len(asset.Records)))
	return nil
}

// Close closes the pool opened by DialPostgres.
func (s *PostgresSink) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
