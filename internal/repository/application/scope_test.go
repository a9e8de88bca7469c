package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/application"
	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/memory"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

func countUsers(t *testing.T, db *memory.Database, repo *memory.Repository) int {
	t.Helper()
	var n int
	err := application.WithinConnection(context.Background(), db, func(ctx context.Context, conn *memory.Connection) error {
		var err error
		n, err = repo.Count(ctx, conn, query.Query{})
		return err
	})
	require.NoError(t, err)
	return n
}

func TestWithinConnection_ReleasesConnection(t *testing.T) {
	db, repo := newUsersDB()
	var captured *memory.Connection

	err := application.WithinConnection(context.Background(), db, func(ctx context.Context, conn *memory.Connection) error {
		captured = conn
		return nil
	})
	require.NoError(t, err)

	_, err = repo.Where(context.Background(), captured, query.Query{})
	assert.ErrorIs(t, err, domain.ErrConnectionReleased)

	// La base vuelve a estar libre.
	assert.Equal(t, 3, countUsers(t, db, repo))
}

func TestWithinConnection_ReturnsFnError(t *testing.T) {
	db, repo := newUsersDB()
	boom := errors.New("boom")

	err := application.WithinConnection(context.Background(), db, func(ctx context.Context, conn *memory.Connection) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, countUsers(t, db, repo))
}

func TestWithinTransaction_CommitsOnSuccess(t *testing.T) {
	db, repo := newUsersDB()

	err := application.WithinTransaction(context.Background(), db, zap.NewNop(), func(ctx context.Context, tx domain.Transaction[*memory.Connection]) error {
		_, err := repo.Create(ctx, tx.Conn(), query.Record{"text": "jkl"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 4, countUsers(t, db, repo))
}

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	db, repo := newUsersDB()
	boom := errors.New("boom")

	err := application.WithinTransaction(context.Background(), db, zap.NewNop(), func(ctx context.Context, tx domain.Transaction[*memory.Connection]) error {
		if _, err := repo.Create(ctx, tx.Conn(), query.Record{"text": "jkl"}); err != nil {
			return err
		}
		if _, err := repo.Destroy(ctx, tx.Conn(), query.Query{}); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)
	assert.Equal(t, 3, countUsers(t, db, repo))
}

func TestWithinTransaction_RollsBackOnPanic(t *testing.T) {
	db, repo := newUsersDB()

	assert.Panics(t, func() {
		_ = application.WithinTransaction(context.Background(), db, zap.NewNop(), func(ctx context.Context, tx domain.Transaction[*memory.Connection]) error {
			_, _ = repo.Destroy(ctx, tx.Conn(), query.Query{})
			panic("boom")
		})
	})
	assert.Equal(t, 3, countUsers(t, db, repo))
}

func TestWithinTransaction_ExplicitRollback(t *testing.T) {
	db, repo := newUsersDB()

	err := application.WithinTransaction(context.Background(), db, zap.NewNop(), func(ctx context.Context, tx domain.Transaction[*memory.Connection]) error {
		if _, err := repo.Destroy(ctx, tx.Conn(), query.Query{}); err != nil {
			return err
		}
		return tx.Rollback(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, countUsers(t, db, repo))
}

func TestInTransaction_RejectsNesting(t *testing.T) {
	db, _ := newUsersDB()

	err := application.WithinTransaction(context.Background(), db, zap.NewNop(), func(ctx context.Context, tx domain.Transaction[*memory.Connection]) error {
		return application.InTransaction(ctx, db, tx.Conn(), zap.NewNop(), func(ctx context.Context, inner domain.Transaction[*memory.Connection]) error {
			return nil
		})
	})
	assert.ErrorIs(t, err, domain.ErrNestedTransaction)
}

func TestAfterCommit(t *testing.T) {
	db, repo := newUsersDB()
	ctx := context.Background()
	var ran []string

	// Sin transacción se ejecuta en el acto.
	application.AfterCommit(ctx, func(context.Context) { ran = append(ran, "direct") })
	assert.Equal(t, []string{"direct"}, ran)

	err := application.WithinTransaction(ctx, db, zap.NewNop(), func(ctx context.Context, tx domain.Transaction[*memory.Connection]) error {
		_, err := repo.Destroy(ctx, tx.Conn(), where("text", query.Eq("abc")))
		application.AfterCommit(ctx, func(context.Context) { ran = append(ran, "commit") })
		assert.Equal(t, []string{"direct"}, ran)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"direct", "commit"}, ran)

	boom := errors.New("boom")
	err = application.WithinTransaction(ctx, db, zap.NewNop(), func(ctx context.Context, tx domain.Transaction[*memory.Connection]) error {
		application.AfterCommit(ctx, func(context.Context) { ran = append(ran, "rollback") })
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"direct", "commit"}, ran)

	err = application.WithinTransaction(ctx, db, zap.NewNop(), func(ctx context.Context, tx domain.Transaction[*memory.Connection]) error {
		application.AfterCommit(ctx, func(context.Context) { ran = append(ran, "explicit rollback") })
		return tx.Rollback(ctx)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"direct", "commit"}, ran)
}
