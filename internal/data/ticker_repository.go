package data

import (
	"context"
	"time"

	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TickerRepository handles database operations for news tickers.
type TickerRepository struct {
	store[NewsTicker, *NewsTicker]
}

// NewTickerRepository creates a new TickerRepository.
func NewTickerRepository(db *mongo.Database) *TickerRepository {
	return &TickerRepository{
		store: newStore[NewsTicker](db, NewsTickersCollection, bson.D{{Key: "position", Value: 1}, {Key: "created_at", Value: -1}}, "text"),
	}
}

// List returns a page of live tickers.
func (r *TickerRepository) List(ctx context.Context, p pagination.Params) ([]*NewsTicker, int64, error) {
	return r.list(ctx, nil, p)
}

// Visible returns active tickers whose schedule window contains now.
func (r *TickerRepository) Visible(ctx context.Context, now time.Time) ([]*NewsTicker, error) {
	filter := live(bson.M{
		"active": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{bson.M{"starts_at": bson.M{"$exists": false}}, bson.M{"starts_at": nil}, bson.M{"starts_at": bson.M{"$lte": now}}}},
			bson.M{"$or": bson.A{bson.M{"ends_at": bson.M{"$exists": false}}, bson.M{"ends_at": nil}, bson.M{"ends_at": bson.M{"$gt": now}}}},
		},
	})
	return r.find(ctx, filter, options.Find().SetSort(r.sort))
}

// GetByID finds a live ticker by its ID.
func (r *TickerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*NewsTicker, error) {
	return r.get(ctx, id)
}

// Create inserts a new ticker.
func (r *TickerRepository) Create(ctx context.Context, t *NewsTicker) error {
	return r.insert(ctx, t)
}

// Update writes the editable fields of t.
func (r *TickerRepository) Update(ctx context.Context, t *NewsTicker) error {
	return r.set(ctx, t.ID, bson.M{
		"text":      t.Text,
		"link":      t.Link,
		"active":    t.Active,
		"position":  t.Position,
		"starts_at": t.StartsAt,
		"ends_at":   t.EndsAt,
	})
}

// Delete soft-deletes a ticker.
func (r *TickerRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.softDelete(ctx, id)
}

// Toggle flips a boolean flag if it still holds expected.
func (r *TickerRepository) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) error {
	return r.toggle(ctx, id, field, expected)
}
