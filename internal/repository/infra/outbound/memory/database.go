package memory

import (
	"context"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

// Database guarda colecciones de registros en memoria. Solo una conexión
// puede estar adquirida a la vez, así que el trabajo sobre una conexión no
// necesita más bloqueos.
type Database struct {
	collections map[string][]query.Record
	gate        chan struct{}
}

var _ domain.Backend[*Connection] = (*Database)(nil)

// NewDatabase crea una base con las colecciones iniciales (se copian).
func NewDatabase(seed map[string][]query.Record) *Database {
	d := &Database{
		collections: make(map[string][]query.Record, len(seed)),
		gate:        make(chan struct{}, 1),
	}
	for resource, records := range seed {
		d.collections[resource] = query.CloneAll(records)
	}
	return d
}

// Acquire espera a que la base quede libre o a que ctx termine.
func (d *Database) Acquire(ctx context.Context) (*Connection, error) {
	select {
	case d.gate <- struct{}{}:
		return &Connection{db: d}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release libera la conexión. Una transacción que siga abierta se revierte.
func (d *Database) Release(conn *Connection) error {
	if conn == nil || conn.released {
		return domain.ErrConnectionReleased
	}
	if conn.journal != nil {
		conn.restore()
	}
	conn.released = true
	<-d.gate
	return nil
}

// Begin abre una transacción sobre conn. No admite anidamiento.
func (d *Database) Begin(ctx context.Context, conn *Connection) (domain.Transaction[*Connection], error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	if conn.journal != nil {
		return nil, domain.ErrNestedTransaction
	}
	conn.journal = make(map[string]priorState)
	return &transaction{conn: conn}, nil
}

// ---------------- Conexión ----------------

// priorState es el valor de una colección antes de su primera escritura en
// la transacción. Las colecciones nunca se modifican en sitio, así que
// basta con conservar el slice anterior.
type priorState struct {
	records []query.Record
	existed bool
}

// Connection es la conexión del backend en memoria.
type Connection struct {
	db       *Database
	journal  map[string]priorState
	released bool
}

func (c *Connection) check() error {
	if c == nil || c.released {
		return domain.ErrConnectionReleased
	}
	return nil
}

func (c *Connection) records(resource string) []query.Record {
	return c.db.collections[resource]
}

// persist sustituye la colección y anota su estado previo si hay transacción.
func (c *Connection) persist(resource string, records []query.Record) {
	if c.journal != nil {
		if _, seen := c.journal[resource]; !seen {
			prior, existed := c.db.collections[resource]
			c.journal[resource] = priorState{records: prior, existed: existed}
		}
	}
	c.db.collections[resource] = records
}

func (c *Connection) restore() {
	for resource, prior := range c.journal {
		if prior.existed {
			c.db.collections[resource] = prior.records
		} else {
			delete(c.db.collections, resource)
		}
	}
	c.journal = nil
}

// ---------------- Transacción ----------------

type transaction struct {
	conn *Connection
	done bool
}

func (t *transaction) Conn() *Connection { return t.conn }

func (t *transaction) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.conn.journal = nil
	return nil
}

func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.conn.restore()
	return nil
}
