package application_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/memory"
	sharedBus "github.com/davicafu/hexaquery/shared/platform/bus"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Where(ctx context.Context, conn any, q query.Query) ([]query.Record, error) {
	args := m.Called(ctx, conn, q)
	return args.Get(0).([]query.Record), args.Error(1)
}

func (m *MockRepository) Count(ctx context.Context, conn any, q query.Query) (int, error) {
	args := m.Called(ctx, conn, q)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, conn any, record query.Record) (query.Record, error) {
	args := m.Called(ctx, conn, record)
	return args.Get(0).(query.Record), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, conn any, q query.Query, values query.Record) ([]query.Record, error) {
	args := m.Called(ctx, conn, q, values)
	return args.Get(0).([]query.Record), args.Error(1)
}

func (m *MockRepository) Destroy(ctx context.Context, conn any, q query.Query) ([]query.Record, error) {
	args := m.Called(ctx, conn, q)
	return args.Get(0).([]query.Record), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event interface{}) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var _ domain.Repository[any] = (*MockRepository)(nil)
var _ sharedBus.EventPublisher = (*MockPublisher)(nil)

// seedUsers son los registros de partida de casi todas las pruebas.
func seedUsers() []query.Record {
	return []query.Record{
		{"text": "abc", "property": 1},
		{"text": "def", "property": 2},
		{"text": "ghi", "property": nil},
	}
}

func newUsersDB(extra ...string) (*memory.Database, *memory.Repository) {
	collections := map[string][]query.Record{"users": seedUsers()}
	for _, name := range extra {
		collections[name] = []query.Record{}
	}
	repo, _ := memory.NewRepository("users")
	return memory.NewDatabase(collections), repo
}

func texts(records []query.Record) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r["text"]
	}
	return out
}

func where(field string, p query.Predicate) query.Query {
	return query.New(query.Where(map[string]query.Predicate{field: p}))
}
