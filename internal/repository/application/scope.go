package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/domain"
)

// WithinConnection adquiere una conexión, ejecuta fn y la libera siempre.
// El error de fn tiene prioridad sobre el de la liberación.
func WithinConnection[C any](ctx context.Context, backend domain.Backend[C], fn func(ctx context.Context, conn C) error) (err error) {
	conn, err := backend.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := backend.Release(conn); err == nil {
			err = releaseErr
		}
	}()
	return fn(ctx, conn)
}

// WithinTransaction adquiere una conexión y ejecuta fn dentro de una
// transacción: confirma si fn termina bien y revierte si falla, devolviendo
// el error de fn sin modificar. fn puede confirmar o revertir por su cuenta.
func WithinTransaction[C any](ctx context.Context, backend domain.Backend[C], log *zap.Logger, fn func(ctx context.Context, tx domain.Transaction[C]) error) error {
	return WithinConnection(ctx, backend, func(ctx context.Context, conn C) error {
		return InTransaction(ctx, backend, conn, log, fn)
	})
}

// InTransaction reutiliza una conexión ya adquirida; no la libera.
func InTransaction[C any](ctx context.Context, backend domain.Backend[C], conn C, log *zap.Logger, fn func(ctx context.Context, tx domain.Transaction[C]) error) (err error) {
	tx, err := backend.Begin(ctx, conn)
	if err != nil {
		return err
	}
	txID := uuid.New()

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	hooks := &commitHooks{}
	tracked := &trackedTx[C]{Transaction: tx}
	if err = fn(context.WithValue(ctx, commitHooksKey{}, hooks), tracked); err != nil {
		// El rollback debe ejecutarse aunque ctx esté cancelado.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			log.Warn("Rollback failed",
				zap.String("tx_id", txID.String()),
				zap.Error(rbErr))
		} else {
			log.Debug("Transaction rolled back",
				zap.String("tx_id", txID.String()),
				zap.Error(err))
		}
		return err
	}

	if err = tracked.Commit(ctx); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return fmt.Errorf("commit failed: %w", err)
	}
	if tracked.committed {
		hooks.run(context.WithoutCancel(ctx))
	}
	return nil
}

// trackedTx recuerda cómo terminó la transacción: fn puede confirmarla o
// revertirla antes que InTransaction, y la primera llamada decide.
type trackedTx[C any] struct {
	domain.Transaction[C]
	decided   bool
	committed bool
}

func (t *trackedTx[C]) Commit(ctx context.Context) error {
	err := t.Transaction.Commit(ctx)
	if !t.decided {
		t.decided = true
		t.committed = err == nil
	}
	return err
}

func (t *trackedTx[C]) Rollback(ctx context.Context) error {
	t.decided = true
	return t.Transaction.Rollback(ctx)
}

// ---------------- Post-commit ----------------

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

func (h *commitHooks) run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}

// AfterCommit ejecuta fn cuando se confirme la transacción abierta con
// InTransaction que lleva ctx. Si la transacción se revierte, también de
// forma explícita dentro de fn, se descarta.
// Fuera de una transacción fn se ejecuta en el acto.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	hooks, ok := ctx.Value(commitHooksKey{}).(*commitHooks)
	if !ok {
		fn(ctx)
		return
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}
