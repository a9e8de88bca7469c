package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/davicafu/hexaquery/internal/repository/domain"
)

// Backend entrega conexiones lógicas sobre una base de MongoDB. El pool real
// lo gestiona el driver; una conexión solo lleva la sesión de la transacción.
type Backend struct {
	client *mongo.Client
	dbName string
}

var _ domain.Backend[*Conn] = (*Backend)(nil)

// Connect abre el cliente y comprueba que el servidor responde.
func Connect(ctx context.Context, uri, dbName string) (*Backend, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("could not connect to mongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}
	return NewBackend(client, dbName), nil
}

func NewBackend(client *mongo.Client, dbName string) *Backend {
	return &Backend{client: client, dbName: dbName}
}

// Disconnect cierra el cliente.
func (b *Backend) Disconnect(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

func (b *Backend) Acquire(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Conn{db: b.client.Database(b.dbName)}, nil
}

// Release aborta la transacción que siga abierta.
func (b *Backend) Release(conn *Conn) error {
	if err := conn.check(); err != nil {
		return err
	}
	conn.released = true
	if conn.session != nil {
		ctx := context.Background()
		defer conn.endSession(ctx)
		return conn.session.AbortTransaction(ctx)
	}
	return nil
}

// Begin abre una sesión con transacción. Requiere un replica set.
func (b *Backend) Begin(ctx context.Context, conn *Conn) (domain.Transaction[*Conn], error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	if conn.session != nil {
		return nil, domain.ErrNestedTransaction
	}

	session, err := b.client.StartSession()
	if err != nil {
		return nil, err
	}
	if err := session.StartTransaction(); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	conn.session = session
	return &transaction{conn: conn}, nil
}

// ---------------- Conexión ----------------

type Conn struct {
	db       *mongo.Database
	session  mongo.Session
	released bool
}

func (c *Conn) check() error {
	if c == nil || c.released {
		return domain.ErrConnectionReleased
	}
	return nil
}

// withSession asocia la sesión de la transacción, si la hay.
func (c *Conn) withSession(ctx context.Context) context.Context {
	if c.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, c.session)
}

func (c *Conn) collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

func (c *Conn) endSession(ctx context.Context) {
	c.session.EndSession(ctx)
	c.session = nil
}

// ---------------- Transacción ----------------

type transaction struct {
	conn *Conn
	done bool
}

func (t *transaction) Conn() *Conn { return t.conn }

func (t *transaction) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.conn.endSession(ctx)
	return t.conn.session.CommitTransaction(ctx)
}

func (t *transaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.conn.endSession(ctx)
	return t.conn.session.AbortTransaction(ctx)
}
