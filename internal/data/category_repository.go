package data

import (
	"context"
	"fmt"
	"time"

	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CategoryRepository handles database operations for main categories.
type CategoryRepository struct {
	client *mongo.Client
	store[Category, *Category]
	content *mongo.Collection
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(client *mongo.Client, db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{
		client:  client,
		store:   newStore[Category](db, CategoriesCollection, bson.D{{Key: "position", Value: 1}, {Key: "name", Value: 1}}, "name", "description"),
		content: db.Collection(ContentMediaCollection),
	}
}

// List returns a page of live categories ordered by position.
func (r *CategoryRepository) List(ctx context.Context, p pagination.Params) ([]*Category, int64, error) {
	return r.list(ctx, nil, p)
}

// GetByID finds a live category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Category, error) {
	return r.get(ctx, id)
}

// FindBySlug finds a live category by slug.
func (r *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*Category, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	if c.PinnedContents == nil {
		c.PinnedContents = []primitive.ObjectID{}
	}
	return r.insert(ctx, c)
}

// Update writes the editable fields of c.
func (r *CategoryRepository) Update(ctx context.Context, c *Category) error {
	return r.set(ctx, c.ID, bson.M{
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"logo":        c.Logo,
		"active":      c.Active,
		"featured":    c.Featured,
		"position":    c.Position,
	})
}

// SetLogo replaces the category logo URL.
func (r *CategoryRepository) SetLogo(ctx context.Context, id primitive.ObjectID, logo string) error {
	return r.set(ctx, id, bson.M{"logo": logo})
}

// Delete soft-deletes a category.
func (r *CategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.softDelete(ctx, id)
}

// Toggle flips a boolean flag if it still holds expected.
func (r *CategoryRepository) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) error {
	return r.toggle(ctx, id, field, expected)
}

// Reorder assigns positions 0..n-1 following ids.
func (r *CategoryRepository) Reorder(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(ids))
	for i, id := range ids {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(live(bson.M{"_id": id})).
			SetUpdate(bson.M{"$set": bson.M{"position": i, "updated_at": now}}))
	}
	res, err := r.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to reorder categories: %w", err)
	}
	if res.MatchedCount != int64(len(ids)) {
		return ErrNotFound
	}
	return nil
}

// PinContent adds or removes contentID from the category's pinned contents and
// sets the content's pinned flag to whether any live category still pins it,
// both in one transaction.
func (r *CategoryRepository) PinContent(ctx context.Context, categoryID, contentID primitive.ObjectID, pinned bool) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now().UTC()
		op := "$pull"
		if pinned {
			op = "$addToSet"
		}
		res, err := r.coll.UpdateOne(sc, live(bson.M{"_id": categoryID}), bson.M{
			op:     bson.M{"pinned_contents": contentID},
			"$set": bson.M{"updated_at": now},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to update pinned contents: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}

		pins, err := r.coll.CountDocuments(sc, live(bson.M{"pinned_contents": contentID}))
		if err != nil {
			return nil, fmt.Errorf("failed to count category pins: %w", err)
		}
		res, err = r.content.UpdateOne(sc, live(bson.M{"_id": contentID}), bson.M{
			"$set": bson.M{"pinned": pins > 0, "updated_at": now},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to update content pin flag: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	})
	return err
}
