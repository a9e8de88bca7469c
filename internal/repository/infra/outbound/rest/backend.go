package rest

import (
	"context"
	"sync"

	"github.com/davicafu/hexaquery/internal/repository/domain"
)

// Conn guarda el token que acompaña a cada petición. No hay socket que
// mantener: adquirir y liberar solo controlan su ciclo de vida.
type Conn struct {
	mu       sync.Mutex
	token    string
	released bool
	inTx     bool
}

func (c *Conn) check() error {
	if c == nil {
		return domain.ErrConnectionReleased
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return domain.ErrConnectionReleased
	}
	return nil
}

func (c *Conn) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

var (
	_ domain.Backend[*Conn]       = (*Client)(nil)
	_ domain.Authenticator[*Conn] = (*Client)(nil)
)

func (c *Client) Acquire(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Conn{}, nil
}

func (c *Client) Release(conn *Conn) error {
	if err := conn.check(); err != nil {
		return err
	}
	conn.mu.Lock()
	conn.released = true
	conn.inTx = false
	conn.mu.Unlock()
	return nil
}

// Begin abre una transacción vacía: el API no ofrece transacciones, así que
// cada petición se confirma al llegar y Rollback no deshace nada.
func (c *Client) Begin(ctx context.Context, conn *Conn) (domain.Transaction[*Conn], error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.inTx {
		return nil, domain.ErrNestedTransaction
	}
	conn.inTx = true
	return &transaction{conn: conn}, nil
}

func (c *Client) SetAuthentication(conn *Conn, token string) {
	conn.mu.Lock()
	conn.token = token
	conn.mu.Unlock()
}

func (c *Client) UnsetAuthentication(conn *Conn) {
	c.SetAuthentication(conn, "")
}

// ---------------- Transacción ----------------

type transaction struct {
	conn *Conn
	once sync.Once
}

func (t *transaction) Conn() *Conn { return t.conn }

func (t *transaction) Commit(ctx context.Context) error {
	t.finish()
	return nil
}

func (t *transaction) Rollback(ctx context.Context) error {
	t.finish()
	return nil
}

func (t *transaction) finish() {
	t.once.Do(func() {
		t.conn.mu.Lock()
		t.conn.inTx = false
		t.conn.mu.Unlock()
	})
}
