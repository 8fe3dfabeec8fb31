package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Project-Sylos/Sitemap/internal/db/migrations"
	"github.com/Project-Sylos/Sitemap/internal/types"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

// Drivers understood by Open
const (
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Tables lists every data table, in the order they are reported by Stats
var Tables = []string{"projects", "items", "markers", "marker_history", "flow_nodes", "flow_edges"}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a SQL connection pool and provides CRUD operations for projects,
// items, markers and flows. A DB returned to a WithTx callback routes every
// statement through that transaction.
type DB struct {
	conn   *sql.DB
	q      querier
	driver string
	inTx   bool
}

// Open connects to the database, applies pending migrations and returns the store
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	conn, err := openConn(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	db := &DB{conn: conn, q: conn, driver: driver}
	if err := db.Migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func openConn(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverDuckDB:
		if dsn == ":memory:" {
			dsn = ""
		}
		conn, err := sql.Open("duckdb", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open DuckDB connection: %w", err)
		}
		return conn, nil

	case DriverSQLite:
		source := dsn
		if dsn != ":memory:" {
			source = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)", dsn)
		}
		conn, err := sql.Open("sqlite", source)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
		}
		// SQLite has a single writer; one connection keeps :memory: databases
		// shared and avoids SQLITE_BUSY on write upgrades.
		conn.SetMaxOpenConns(1)
		return conn, nil

	case DriverPostgres:
		conn, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open Postgres connection: %w", err)
		}
		conn.SetConnMaxIdleTime(5 * time.Minute)
		conn.SetConnMaxLifetime(30 * time.Minute)
		conn.SetMaxIdleConns(10)
		conn.SetMaxOpenConns(20)
		return conn, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate applies the embedded schema migrations that have not run yet
func (db *DB) Migrate(ctx context.Context) error {
	return applyMigrations(ctx, db, migrations.FS)
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Driver returns the name of the driver in use
func (db *DB) Driver() string {
	return db.driver
}

// Ping verifies the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// WithTx runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise. Nested calls reuse the outer transaction.
func (db *DB) WithTx(ctx context.Context, fn func(tx *DB) error) error {
	if db.inTx {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txDB := &DB{conn: db.conn, q: tx, driver: db.driver, inTx: true}
	if err := fn(txDB); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Stats returns the row count of every data table
func (db *DB) Stats(ctx context.Context) ([]types.TableInfo, error) {
	infos := make([]types.TableInfo, 0, len(Tables))
	for _, table := range Tables {
		var count int
		if err := db.queryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		infos = append(infos, types.TableInfo{Name: table, RowCount: count})
	}
	return infos, nil
}

// Reset deletes every row from every data table
func (db *DB) Reset(ctx context.Context) error {
	return db.WithTx(ctx, func(tx *DB) error {
		for i := len(Tables) - 1; i >= 0; i-- {
			if _, err := tx.exec(ctx, "DELETE FROM "+Tables[i]); err != nil {
				return fmt.Errorf("failed to clear %s: %w", Tables[i], err)
			}
		}
		return nil
	})
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.q.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.q.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.q.QueryRowContext(ctx, db.rebind(query), args...)
}

// rebind rewrites ? placeholders to $n for Postgres. Queries never contain a
// literal question mark.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns "?, ?, ..." with n markers
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// affected turns a zero-row result into ErrNotFound
func affected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, types.ErrNotFound)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// nullJSON maps an empty raw message to SQL NULL
func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// rawJSON maps a nullable text column back to a raw message
func rawJSON(s sql.NullString) []byte {
	if !s.Valid || s.String == "" {
		return nil
	}
	return []byte(s.String)
}
