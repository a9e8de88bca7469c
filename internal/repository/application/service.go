package application

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

type tokenKey struct{}

// WithToken adjunta al contexto el token que se pasará a los backends que
// implementan domain.Authenticator.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom devuelve el token adjunto, si lo hay.
func TokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// RecordService expone los recursos configurados sobre un backend. Las
// lecturas usan una conexión; las escrituras, una transacción.
type RecordService[C any] struct {
	backend domain.Backend[C]
	repos   map[string]*RecordListRepository[C]
	log     *zap.Logger
}

func NewRecordService[C any](backend domain.Backend[C], repos map[string]domain.Repository[C], log *zap.Logger) *RecordService[C] {
	decorated := make(map[string]*RecordListRepository[C], len(repos))
	for resource, repo := range repos {
		decorated[resource] = Decorate(repo)
	}
	return &RecordService[C]{backend: backend, repos: decorated, log: log}
}

// Resources devuelve los recursos en orden alfabético.
func (s *RecordService[C]) Resources() []string {
	out := make([]string, 0, len(s.repos))
	for resource := range s.repos {
		out = append(out, resource)
	}
	sort.Strings(out)
	return out
}

func (s *RecordService[C]) repo(resource string) (*RecordListRepository[C], error) {
	repo, ok := s.repos[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownResource, resource)
	}
	return repo, nil
}

// ---------------- Lecturas ----------------

func (s *RecordService[C]) Where(ctx context.Context, resource string, q query.Query) (domain.RecordList, error) {
	repo, err := s.repo(resource)
	if err != nil {
		return domain.RecordList{}, err
	}
	var list domain.RecordList
	err = s.withinConnection(ctx, func(ctx context.Context, conn C) error {
		list, err = repo.Where(ctx, conn, q)
		return err
	})
	return list, err
}

func (s *RecordService[C]) Count(ctx context.Context, resource string, q query.Query) (int, error) {
	repo, err := s.repo(resource)
	if err != nil {
		return 0, err
	}
	var total int
	err = s.withinConnection(ctx, func(ctx context.Context, conn C) error {
		total, err = repo.Count(ctx, conn, q)
		return err
	})
	return total, err
}

// ---------------- Escrituras ----------------

func (s *RecordService[C]) Create(ctx context.Context, resource string, record query.Record) (query.Record, error) {
	repo, err := s.repo(resource)
	if err != nil {
		return nil, err
	}
	var created query.Record
	err = s.withinTransaction(ctx, func(ctx context.Context, conn C) error {
		created, err = repo.Create(ctx, conn, record)
		return err
	})
	return created, err
}

func (s *RecordService[C]) Update(ctx context.Context, resource string, q query.Query, values query.Record) (domain.RecordList, error) {
	repo, err := s.repo(resource)
	if err != nil {
		return domain.RecordList{}, err
	}
	var list domain.RecordList
	err = s.withinTransaction(ctx, func(ctx context.Context, conn C) error {
		list, err = repo.Update(ctx, conn, q, values)
		return err
	})
	return list, err
}

func (s *RecordService[C]) Destroy(ctx context.Context, resource string, q query.Query) (domain.RecordList, error) {
	repo, err := s.repo(resource)
	if err != nil {
		return domain.RecordList{}, err
	}
	var list domain.RecordList
	err = s.withinTransaction(ctx, func(ctx context.Context, conn C) error {
		list, err = repo.Destroy(ctx, conn, q)
		return err
	})
	return list, err
}

// ---------------- Ámbitos ----------------

func (s *RecordService[C]) withinConnection(ctx context.Context, fn func(ctx context.Context, conn C) error) error {
	return WithinConnection(ctx, s.backend, func(ctx context.Context, conn C) error {
		s.authenticate(ctx, conn)
		return fn(ctx, conn)
	})
}

func (s *RecordService[C]) withinTransaction(ctx context.Context, fn func(ctx context.Context, conn C) error) error {
	return WithinConnection(ctx, s.backend, func(ctx context.Context, conn C) error {
		s.authenticate(ctx, conn)
		return InTransaction(ctx, s.backend, conn, s.log, func(ctx context.Context, tx domain.Transaction[C]) error {
			return fn(ctx, tx.Conn())
		})
	})
}

func (s *RecordService[C]) authenticate(ctx context.Context, conn C) {
	auth, ok := s.backend.(domain.Authenticator[C])
	if !ok {
		return
	}
	if token, ok := TokenFrom(ctx); ok {
		auth.SetAuthentication(conn, token)
	} else {
		auth.UnsetAuthentication(conn)
	}
}
