package data

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type uniqueIndex struct {
	collection string
	name       string
	keys       bson.D
}

// Soft-deleted documents fall outside the partial filter, so their values can be reused.
var uniqueIndexes = []uniqueIndex{
	{CategoriesCollection, "uniq_live_slug", bson.D{{Key: "slug", Value: 1}}},
	{MembersCollection, "uniq_live_email", bson.D{{Key: "email", Value: 1}}},
	{CustomFieldsCollection, "uniq_live_entity_key", bson.D{{Key: "entity", Value: 1}, {Key: "key", Value: 1}}},
	{AdminUsersCollection, "uniq_live_email", bson.D{{Key: "email", Value: 1}}},
}

// EnsureIndexes creates the unique indexes that back ErrDuplicate. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idx := range uniqueIndexes {
		model := mongo.IndexModel{
			Keys: idx.keys,
			Options: options.Index().
				SetName(idx.name).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"deleted": false}),
		}
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index %s on %s: %w", idx.name, idx.collection, err)
		}
	}
	return nil
}
