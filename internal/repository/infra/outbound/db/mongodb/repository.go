package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

// Repository ejecuta consultas sobre una colección. Fuera de una transacción
// Update y Destroy no son atómicos: leen los _id afectados y después escriben.
type Repository struct {
	resource string
}

var _ domain.Repository[*Conn] = (*Repository)(nil)

func NewRepository(resource string) (*Repository, error) {
	if resource == "" {
		return nil, domain.ErrResourceRequired
	}
	return &Repository{resource: resource}, nil
}

func (r *Repository) Where(ctx context.Context, conn *Conn, q query.Query) ([]query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	if n, ok := q.Limit(); ok && n == 0 {
		return []query.Record{}, nil
	}

	cursor, err := conn.collection(r.resource).Aggregate(conn.withSession(ctx), Pipeline(q))
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cursor)
}

func (r *Repository) Count(ctx context.Context, conn *Conn, q query.Query) (int, error) {
	if err := conn.check(); err != nil {
		return 0, err
	}
	opts := options.Count()
	if n, ok := q.Limit(); ok {
		if n == 0 {
			return 0, nil
		}
		opts.SetLimit(int64(n))
	}
	if n, ok := q.Offset(); ok {
		opts.SetSkip(int64(n))
	}

	total, err := conn.collection(r.resource).CountDocuments(conn.withSession(ctx), Filter(q), opts)
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *Repository) Create(ctx context.Context, conn *Conn, record query.Record) (query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	doc := record.Clone()
	if doc == nil {
		doc = query.Record{}
	}

	res, err := conn.collection(r.resource).InsertOne(conn.withSession(ctx), bson.M(doc))
	if err != nil {
		return nil, err
	}
	doc["_id"] = res.InsertedID
	return doc, nil
}

func (r *Repository) Update(ctx context.Context, conn *Conn, q query.Query, values query.Record) ([]query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	ids, err := r.matchingIDs(ctx, conn, q)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []query.Record{}, nil
	}

	byID := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	if len(values) > 0 {
		update := bson.D{{Key: "$set", Value: bson.M(values)}}
		if _, err := conn.collection(r.resource).UpdateMany(conn.withSession(ctx), byID, update); err != nil {
			return nil, err
		}
	}
	return r.find(ctx, conn, byID)
}

func (r *Repository) Destroy(ctx context.Context, conn *Conn, q query.Query) ([]query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	docs, err := r.find(ctx, conn, Filter(q))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return docs, nil
	}

	ids := make(bson.A, len(docs))
	for i, d := range docs {
		ids[i] = d["_id"]
	}
	byID := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	if _, err := conn.collection(r.resource).DeleteMany(conn.withSession(ctx), byID); err != nil {
		return nil, err
	}
	return docs, nil
}

// ---------------- Helpers ----------------

func (r *Repository) matchingIDs(ctx context.Context, conn *Conn, q query.Query) (bson.A, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}})
	cursor, err := conn.collection(r.resource).Find(conn.withSession(ctx), Filter(q), opts)
	if err != nil {
		return nil, err
	}
	docs, err := decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
	}
	ids := make(bson.A, len(docs))
	for i, d := range docs {
		ids[i] = d["_id"]
	}
	return ids, nil
}

func (r *Repository) find(ctx context.Context, conn *Conn, filter bson.D) ([]query.Record, error) {
	cursor, err := conn.collection(r.resource).Find(conn.withSession(ctx), filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cursor)
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]query.Record, error) {
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]query.Record, len(docs))
	for i, d := range docs {
		out[i] = query.Record(d)
	}
	return out, nil
}
