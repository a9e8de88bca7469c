package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/hexaquery/internal/repository/application"
	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/internal/repository/infra/outbound/memory"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

func TestRecordList_Where(t *testing.T) {
	db, raw := newUsersDB()
	repo := application.Decorate[*memory.Connection](raw)
	ctx := context.Background()

	tests := []struct {
		name      string
		query     query.Query
		wantTexts []any
		wantMeta  domain.Meta
	}{
		{
			name:      "limit and offset",
			query:     query.New(query.Limit(1), query.Offset(2)),
			wantTexts: []any{"ghi"},
			wantMeta:  domain.Meta{Total: 3, Limit: 1, Offset: 2, Length: 1},
		},
		{
			name:      "offset past the end",
			query:     query.New(query.Limit(1), query.Offset(5)),
			wantTexts: []any{},
			wantMeta:  domain.Meta{Total: 3, Limit: 1, Offset: 5, Length: 0},
		},
		{
			name:      "no pagination",
			query:     where("property", query.Gte(1)),
			wantTexts: []any{"abc", "def"},
			wantMeta:  domain.Meta{Total: 2, Limit: 2, Offset: 0, Length: 2},
		},
		{
			name:      "ordered page",
			query:     query.New(query.Order(query.Desc("text")), query.Limit(2)),
			wantTexts: []any{"ghi", "def"},
			wantMeta:  domain.Meta{Total: 3, Limit: 2, Offset: 0, Length: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := application.WithinConnection(ctx, db, func(ctx context.Context, conn *memory.Connection) error {
				list, err := repo.Where(ctx, conn, tt.query)
				require.NoError(t, err)
				assert.Equal(t, tt.wantTexts, texts(list.Records))
				assert.Equal(t, tt.wantMeta, list.Meta)
				assert.Equal(t, len(tt.wantTexts), list.Len())
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestRecordList_WritesReportAffected(t *testing.T) {
	db, raw := newUsersDB()
	repo := application.Decorate[*memory.Connection](raw)
	ctx := context.Background()

	err := application.WithinConnection(ctx, db, func(ctx context.Context, conn *memory.Connection) error {
		updated, err := repo.Update(ctx, conn, where("property", query.Not(query.Eq(nil))), query.Record{"flag": true})
		require.NoError(t, err)
		assert.Equal(t, domain.Meta{Total: 2, Limit: 2, Offset: 0, Length: 2}, updated.Meta)

		destroyed, err := repo.Destroy(ctx, conn, where("text", query.Eq("zzz")))
		require.NoError(t, err)
		assert.Equal(t, domain.Meta{}, destroyed.Meta)
		assert.NotNil(t, destroyed.Records)

		assert.Same(t, raw, repo.Raw())
		return nil
	})
	require.NoError(t, err)
}
