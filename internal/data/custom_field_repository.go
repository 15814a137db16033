package data

import (
	"context"

	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CustomFieldRepository handles database operations for custom field definitions.
type CustomFieldRepository struct {
	store[CustomFieldDefinition, *CustomFieldDefinition]
}

// NewCustomFieldRepository creates a new CustomFieldRepository.
func NewCustomFieldRepository(db *mongo.Database) *CustomFieldRepository {
	return &CustomFieldRepository{
		store: newStore[CustomFieldDefinition](db, CustomFieldsCollection, bson.D{{Key: "entity", Value: 1}, {Key: "key", Value: 1}}, "key", "label"),
	}
}

// List returns a page of definitions, optionally for one entity.
func (r *CustomFieldRepository) List(ctx context.Context, entity string, p pagination.Params) ([]*CustomFieldDefinition, int64, error) {
	filter := bson.M{}
	if entity != "" {
		filter["entity"] = entity
	}
	return r.list(ctx, filter, p)
}

// ActiveFor returns every active definition for entity.
func (r *CustomFieldRepository) ActiveFor(ctx context.Context, entity string) ([]*CustomFieldDefinition, error) {
	return r.find(ctx, live(bson.M{"entity": entity, "active": true}), options.Find().SetSort(r.sort))
}

// FindByKey finds a live definition by entity and key.
func (r *CustomFieldRepository) FindByKey(ctx context.Context, entity, key string) (*CustomFieldDefinition, error) {
	return r.findOne(ctx, bson.M{"entity": entity, "key": key})
}

// GetByID finds a live definition by its ID.
func (r *CustomFieldRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*CustomFieldDefinition, error) {
	return r.get(ctx, id)
}

// Create inserts a new definition.
func (r *CustomFieldRepository) Create(ctx context.Context, d *CustomFieldDefinition) error {
	return r.insert(ctx, d)
}

// Update writes the editable fields of d.
func (r *CustomFieldRepository) Update(ctx context.Context, d *CustomFieldDefinition) error {
	return r.set(ctx, d.ID, bson.M{
		"label":      d.Label,
		"data_type":  d.DataType,
		"validation": d.Validation,
		"active":     d.Active,
	})
}

// Delete soft-deletes a definition.
func (r *CustomFieldRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.softDelete(ctx, id)
}
