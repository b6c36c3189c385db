// Package postgres writes snapshot records to PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vadiminshakov/exposure/internal/services/snapshot"
)

const (
	defaultPostgresHost    = "localhost"
	defaultPostgresPort    = 5432
	defaultPostgresSSLMode = "disable"
)

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Option defines connection options for PostgreSQL.
type Option struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	ConnString string
}

// Sink inserts snapshot records. A snapshot is written in one transaction.
type Sink struct {
	db *gorm.DB
}

// New opens a connection pool from the provided options.
func New(option Option) (*Sink, error) {
	db, err := gorm.Open(postgres.Open(option.dsn()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	return &Sink{db: db}, nil
}

// Name identifies the sink in logs.
func (s *Sink) Name() string {
	return "postgres"
}

// Write inserts rows into table.
func (s *Sink) Write(ctx context.Context, table string, columns []string, rows [][]any) error {
	return s.WriteAll(ctx, []snapshot.Batch{{Table: table, Columns: columns, Rows: rows}})
}

// WriteAll inserts every batch in a single transaction. Nothing is executed when any batch
// fails validation, and a failed insert rolls back the batches before it.
func (s *Sink) WriteAll(ctx context.Context, batches []snapshot.Batch) error {
	stmts, err := buildInserts(batches)
	if err != nil {
		return err
	}
	if len(stmts) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return execAll(stmts, func(query string, args ...any) error {
			return tx.Exec(query, args...).Error
		})
	})
}

type statement struct {
	table string
	query string
	args  []any
}

func buildInserts(batches []snapshot.Batch) ([]statement, error) {
	stmts := make([]statement, 0, len(batches))
	for _, b := range batches {
		if len(b.Rows) == 0 {
			continue
		}
		query, args, err := buildInsert(b.Table, b.Columns, b.Rows)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, statement{table: b.Table, query: query, args: args})
	}
	return stmts, nil
}

// execAll runs stmts in order and stops at the first failure.
func execAll(stmts []statement, exec func(query string, args ...any) error) error {
	for _, st := range stmts {
		if err := exec(st.query, st.args...); err != nil {
			return errors.Wrapf(err, "insert into %s", st.table)
		}
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Sink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// buildInsert renders a multi-row insert with positional placeholders.
func buildInsert(table string, columns []string, rows [][]any) (string, []any, error) {
	if !identifier.MatchString(table) {
		return "", nil, errors.Errorf("invalid table name %q", table)
	}
	if len(columns) == 0 {
		return "", nil, errors.Errorf("no columns for %s", table)
	}
	for _, c := range columns {
		if !identifier.MatchString(c) {
			return "", nil, errors.Errorf("invalid column name %q", c)
		}
	}

	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, errors.Errorf("%s row %d has %d values, want %d", table, i, len(row), len(columns))
		}
		values = append(values, placeholder)
		args = append(args, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(columns, ", "), strings.Join(values, ", "))
	return query, args, nil
}

func (opt Option) dsn() string {
	if opt.ConnString != "" {
		return opt.ConnString
	}

	host := opt.Host
	if host == "" {
		host = defaultPostgresHost
	}

	port := opt.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}

	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}

	if opt.Database != "" {
		u.Path = "/" + opt.Database
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String()
}
