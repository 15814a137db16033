package data

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// document is satisfied by pointers to models embedding Base.
type document[T any] interface {
	*T
	meta() *Base
}

// store implements the soft-delete aware CRUD shared by every entity repository.
type store[T any, P document[T]] struct {
	coll         *mongo.Collection
	searchFields []string
	sort         bson.D
}

func newStore[T any, P document[T]](db *mongo.Database, name string, sort bson.D, searchFields ...string) store[T, P] {
	return store[T, P]{coll: db.Collection(name), searchFields: searchFields, sort: sort}
}

// live restricts filter to documents that are not soft-deleted.
func live(filter bson.M) bson.M {
	f := bson.M{"deleted": bson.M{"$ne": true}}
	for k, v := range filter {
		f[k] = v
	}
	return f
}

// searchFilter builds a case-insensitive match of term over fields.
func searchFilter(term string, fields []string) bson.A {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	clauses := bson.A{}
	for _, field := range fields {
		clauses = append(clauses, bson.M{field: pattern})
	}
	return clauses
}

func (s store[T, P]) list(ctx context.Context, filter bson.M, p pagination.Params) ([]*T, int64, error) {
	f := live(filter)
	if p.Search != "" && len(s.searchFields) > 0 {
		f["$or"] = searchFilter(p.Search, s.searchFields)
	}

	total, err := s.coll.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", s.coll.Name(), err)
	}

	opts := options.Find().SetSkip(p.Skip()).SetLimit(p.Limit()).SetSort(s.sort)
	items, err := s.find(ctx, f, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s store[T, P]) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.coll.Name(), err)
	}
	items := []*T{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.coll.Name(), err)
	}
	return items, nil
}

func (s store[T, P]) findOne(ctx context.Context, filter bson.M) (*T, error) {
	var item T
	if err := s.coll.FindOne(ctx, live(filter)).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get from %s: %w", s.coll.Name(), err)
	}
	return &item, nil
}

func (s store[T, P]) get(ctx context.Context, id primitive.ObjectID) (*T, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// insert assigns an id and timestamps to doc before writing it.
func (s store[T, P]) insert(ctx context.Context, doc *T) error {
	m := P(doc).meta()
	now := time.Now().UTC()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert into %s: %w", s.coll.Name(), err)
	}
	return nil
}

// set applies fields to a live document and bumps updated_at.
func (s store[T, P]) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	update := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		update[k] = v
	}
	return s.update(ctx, id, bson.M{"$set": update})
}

func (s store[T, P]) update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.coll.UpdateOne(ctx, live(bson.M{"_id": id}), update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update %s: %w", s.coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s store[T, P]) softDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	return s.set(ctx, id, bson.M{"deleted": true, "deleted_at": now})
}

// toggle writes !expected to field only while the stored value still equals expected.
// A missing field counts as false.
func (s store[T, P]) toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) error {
	filter := live(bson.M{"_id": id})
	if expected {
		filter[field] = true
	} else {
		filter[field] = bson.M{"$ne": true}
	}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{field: !expected, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to toggle %s on %s: %w", field, s.coll.Name(), err)
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func (s store[T, P]) count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, live(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.coll.Name(), err)
	}
	return n, nil
}
