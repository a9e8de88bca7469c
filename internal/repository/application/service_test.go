package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/application"
	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/memory"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

// authBackend es el backend en memoria más el registro de tokens recibidos.
type authBackend struct {
	*memory.Database
	tokens []string
}

func (b *authBackend) SetAuthentication(conn *memory.Connection, token string) {
	b.tokens = append(b.tokens, token)
}

func (b *authBackend) UnsetAuthentication(conn *memory.Connection) {
	b.tokens = append(b.tokens, "")
}

var _ domain.Authenticator[*memory.Connection] = (*authBackend)(nil)

func newService(t *testing.T) (*application.RecordService[*memory.Connection], *authBackend) {
	t.Helper()
	db, users := newUsersDB()
	tasks, err := memory.NewRepository("tasks")
	require.NoError(t, err)

	backend := &authBackend{Database: db}
	service := application.NewRecordService[*memory.Connection](backend, map[string]domain.Repository[*memory.Connection]{
		"users": users,
		"tasks": tasks,
	}, zap.NewNop())
	return service, backend
}

func TestRecordService_Resources(t *testing.T) {
	service, _ := newService(t)
	assert.Equal(t, []string{"tasks", "users"}, service.Resources())
}

func TestRecordService_Where(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	list, err := service.Where(ctx, "users", query.New(query.Limit(1), query.Offset(2)))
	require.NoError(t, err)
	assert.Equal(t, []any{"ghi"}, texts(list.Records))
	assert.Equal(t, domain.Meta{Total: 3, Limit: 1, Offset: 2, Length: 1}, list.Meta)

	empty, err := service.Where(ctx, "tasks", query.Query{})
	require.NoError(t, err)
	assert.Empty(t, empty.Records)
	assert.Equal(t, domain.Meta{}, empty.Meta)
}

func TestRecordService_Count(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	n, err := service.Count(ctx, "users", where("property", query.Eq(nil)))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = service.Count(ctx, "users", query.New(query.Offset(1)))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordService_Writes(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, "tasks", query.Record{"title": "write docs"})
	require.NoError(t, err)
	assert.Equal(t, query.Record{"title": "write docs"}, created)

	updated, err := service.Update(ctx, "users", where("property", query.Gte(1)), query.Record{"property": 0})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Meta.Total)

	destroyed, err := service.Destroy(ctx, "users", where("property", query.Eq(0)))
	require.NoError(t, err)
	assert.Equal(t, []any{"abc", "def"}, texts(destroyed.Records))

	n, err := service.Count(ctx, "users", query.Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordService_UnknownResource(t *testing.T) {
	service, _ := newService(t)
	ctx := context.Background()

	_, err := service.Where(ctx, "nope", query.Query{})
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
	_, err = service.Count(ctx, "nope", query.Query{})
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
	_, err = service.Create(ctx, "nope", query.Record{})
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
	_, err = service.Update(ctx, "nope", query.Query{}, query.Record{})
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
	_, err = service.Destroy(ctx, "nope", query.Query{})
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}

func TestRecordService_PassesToken(t *testing.T) {
	service, backend := newService(t)

	_, err := service.Where(application.WithToken(context.Background(), "secret"), "users", query.Query{})
	require.NoError(t, err)
	_, err = service.Count(context.Background(), "users", query.Query{})
	require.NoError(t, err)

	assert.Equal(t, []string{"secret", ""}, backend.tokens)
}

func TestTokenFrom(t *testing.T) {
	_, ok := application.TokenFrom(context.Background())
	assert.False(t, ok)

	_, ok = application.TokenFrom(application.WithToken(context.Background(), ""))
	assert.False(t, ok)

	token, ok := application.TokenFrom(application.WithToken(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}
