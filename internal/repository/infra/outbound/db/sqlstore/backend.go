package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/davicafu/hexaquery/internal/repository/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Conn es la conexión del backend SQL: la *sql.Conn adquirida o la *sql.Tx
// abierta sobre ella. *sql.DB también la satisface.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Backend reparte conexiones dedicadas del pool de database/sql.
type Backend struct {
	db *sql.DB
}

var _ domain.Backend[Conn] = (*Backend)(nil)

func NewBackend(db *sql.DB) *Backend {
	return &Backend{db: db}
}

// OpenPostgres abre un pool con el driver pgx.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	return db, nil
}

// OpenSQLite abre una base SQLite. Con ":memory:" cada conexión del pool es
// una base distinta, así que el pool se limita a una.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func (b *Backend) Acquire(ctx context.Context) (Conn, error) {
	conn, err := b.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return conn, nil
}

// Release devuelve la conexión al pool; database/sql revierte la
// transacción que quede abierta.
func (b *Backend) Release(conn Conn) error {
	c, ok := conn.(*sql.Conn)
	if !ok || c == nil {
		return domain.ErrConnectionReleased
	}
	if err := c.Close(); err != nil {
		if errors.Is(err, sql.ErrConnDone) {
			return domain.ErrConnectionReleased
		}
		return err
	}
	return nil
}

func (b *Backend) Begin(ctx context.Context, conn Conn) (domain.Transaction[Conn], error) {
	if _, nested := conn.(*sql.Tx); nested {
		return nil, domain.ErrNestedTransaction
	}
	beginner, ok := conn.(txBeginner)
	if !ok {
		return nil, fmt.Errorf("connection %T cannot begin transactions", conn)
	}
	tx, err := beginner.BeginTx(ctx, nil)
	if err != nil {
		return nil, translate(err)
	}
	return &transaction{tx: tx}, nil
}

// ---------------- Transacción ----------------

type transaction struct {
	tx   *sql.Tx
	done bool
}

func (t *transaction) Conn() Conn { return t.tx }

func (t *transaction) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Commit(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// translate convierte los errores de conexión cerrada al error de dominio;
// el resto se devuelve tal cual lo entrega el driver.
func translate(err error) error {
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", domain.ErrConnectionReleased, err)
	}
	return err
}
