package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/ajitpratap0/csvconf/pkg/errors"
	jsonpool "github.com/ajitpratap0/csvconf/pkg/json"
	"github.com/ajitpratap0/csvconf/pkg/logger"
	"github.com/ajitpratap0/csvconf/pkg/materialize"
)

// SQLExecer is the subset of *sql.DB used by MySQLSink.
type SQLExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// MySQLSink upserts one row per slot into a JSON table:
//
//	slot VARCHAR(255) PRIMARY KEY, revision CHAR(36), columns JSON, records JSON, stored_at DATETIME(6)
type MySQLSink struct {
	db      SQLExecer
	table   string
	close   func() error
	mu      sync.Mutex
	ensured bool
	logger  *zap.Logger
}

// NewMySQLSink creates a sink over an open database. The table is created
// on first use.
func NewMySQLSink(db SQLExecer, table string) *MySQLSink {
	if table == "" {
		table = DefaultTable
	}
	return &MySQLSink{
		db:     db,
		table:  table,
		logger: logger.Get().With(zap.String("component", "mysql_sink"), zap.String("table", table)),
	}
}

// DialMySQL opens and pings the database named by dsn.
func DialMySQL(ctx context.Context, dsn, table string) (*MySQLSink, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql dsn")
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql config")
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to reach mysql")
	}
	s := NewMySQLSink(db, table)
	s.close = db.Close
	return s, nil
}

// quoteIdent quotes a MySQL identifier.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (s *MySQLSink) ensureTable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n"+
		"\t`slot` VARCHAR(255) NOT NULL PRIMARY KEY,\n"+
		"\t`revision` CHAR(36) NOT NULL,\n"+
		"\t`columns` JSON NOT NULL,\n"+
		"\t`records` JSON NOT NULL,\n"+
		"\t`stored_at` DATETIME(6) NOT NULL\n"+
		")", quoteIdent(s.table))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to create table "+s.table)
	}
	s.ensured = true
	return nil
}

// Store upserts the slot's row.
func (s *MySQLSink) Store(ctx context.Context, slot string, ds *materialize.Dataset) error {
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

	upsert := fmt.Sprintf("INSERT INTO %s (`slot`, `revision`, `columns`, `records`, `stored_at`)\n"+
		"VALUES (?, ?, ?, ?, ?)\n"+
		"ON DUPLICATE KEY UPDATE\n"+
		"\t`revision` = VALUES(`revision`),\n"+
		"\t`columns` = VALUES(`columns`),\n"+
		"\t`records` = VALUES(`records`),\n"+
		"\t`stored_at` = VALUES(`stored_at`)", quoteIdent(s.table))
	if _, err := s.db.ExecContext(ctx, upsert, asset.Slot, asset.Revision, string(columns), string(records), asset.StoredAt); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to upsert slot "+slot)
	}
	s.logger.Info("slot stored",
		zap.String("slot", slot),
		zap.String("revision", asset.Revision),
		zap.Int("records", len(asset.Records)))
	return nil
}

// Close closes the database opened by DialMySQL.
func (s *MySQLSink) Close() error {
	if s.close != nil {
		return s.close()
	}
	return nil
}
