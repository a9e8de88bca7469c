package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/application"
	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/memory"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

func setupOutbox(t *testing.T) (*memory.Database, *application.OutboxedRepository[*memory.Connection], *application.OutboxStore[*memory.Connection]) {
	t.Helper()
	db, users := newUsersDB(domain.OutboxResource)
	outbox, err := memory.NewRepository(domain.OutboxResource)
	require.NoError(t, err)
	return db,
		application.WithOutbox[*memory.Connection](users, outbox, "users"),
		application.NewOutboxStore[*memory.Connection](db, outbox)
}

func TestOutbox_WriteAndFetch(t *testing.T) {
	db, repo, store := setupOutbox(t)
	ctx := context.Background()

	err := application.WithinTransaction(ctx, db, zap.NewNop(), func(ctx context.Context, tx domain.Transaction[*memory.Connection]) error {
		if _, err := repo.Create(ctx, tx.Conn(), query.Record{"text": "jkl"}); err != nil {
			return err
		}
		_, err := repo.Update(ctx, tx.Conn(), where("text", query.Eq("abc")), query.Record{"property": 10})
		return err
	})
	require.NoError(t, err)

	pending, err := store.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.RecordsCreated, pending[0].EventType)
	assert.Equal(t, domain.RecordsUpdated, pending[1].EventType)
	assert.False(t, pending[0].CreatedAt.After(pending[1].CreatedAt))

	var change domain.ChangeEvent
	require.NoError(t, json.Unmarshal(pending[0].Payload, &change))
	assert.Equal(t, "users", change.Resource)
	assert.Equal(t, "jkl", change.Records[0]["text"])

	limited, err := store.FetchPendingOutbox(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, store.MarkOutboxProcessed(ctx, pending[0].ID))
	pending, err = store.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.RecordsUpdated, pending[0].EventType)
}

func TestOutbox_RollbackDiscardsEvents(t *testing.T) {
	db, repo, store := setupOutbox(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := application.WithinTransaction(ctx, db, zap.NewNop(), func(ctx context.Context, tx domain.Transaction[*memory.Connection]) error {
		if _, err := repo.Destroy(ctx, tx.Conn(), query.Query{}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	pending, err := store.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutbox_EmptyWriteRecordsNothing(t *testing.T) {
	db, repo, store := setupOutbox(t)
	ctx := context.Background()

	err := application.WithinConnection(ctx, db, func(ctx context.Context, conn *memory.Connection) error {
		_, err := repo.Destroy(ctx, conn, where("text", query.Eq("zzz")))
		return err
	})
	require.NoError(t, err)

	pending, err := store.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutbox_MarkUnknownEvent(t *testing.T) {
	_, _, store := setupOutbox(t)

	err := store.MarkOutboxProcessed(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrOutboxEventNotFound)
}
