package data

import (
	"context"

	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ImmigrationRepository handles database operations for immigration services.
type ImmigrationRepository struct {
	store[ImmigrationService, *ImmigrationService]
}

// NewImmigrationRepository creates a new ImmigrationRepository.
func NewImmigrationRepository(db *mongo.Database) *ImmigrationRepository {
	return &ImmigrationRepository{
		store: newStore[ImmigrationService](db, ImmigrationCollection, bson.D{{Key: "position", Value: 1}, {Key: "title", Value: 1}}, "title", "country"),
	}
}

// List returns a page of live services, optionally restricted to one country.
func (r *ImmigrationRepository) List(ctx context.Context, country string, p pagination.Params) ([]*ImmigrationService, int64, error) {
	filter := bson.M{}
	if country != "" {
		filter["country"] = country
	}
	return r.list(ctx, filter, p)
}

// GetByID finds a live service by its ID.
func (r *ImmigrationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*ImmigrationService, error) {
	return r.get(ctx, id)
}

// Create inserts a new service.
func (r *ImmigrationRepository) Create(ctx context.Context, s *ImmigrationService) error {
	if s.Requirements == nil {
		s.Requirements = []string{}
	}
	return r.insert(ctx, s)
}

// Update writes the editable fields of s.
func (r *ImmigrationRepository) Update(ctx context.Context, s *ImmigrationService) error {
	return r.set(ctx, s.ID, bson.M{
		"title":           s.Title,
		"country":         s.Country,
		"description":     s.Description,
		"requirements":    s.Requirements,
		"processing_days": s.ProcessingDays,
		"fee":             s.Fee,
		"currency":        s.Currency,
		"active":          s.Active,
		"position":        s.Position,
	})
}

// Delete soft-deletes a service.
func (r *ImmigrationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.softDelete(ctx, id)
}

// Toggle flips a boolean flag if it still holds expected.
func (r *ImmigrationRepository) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) error {
	return r.toggle(ctx, id, field, expected)
}
