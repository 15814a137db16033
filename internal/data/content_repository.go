package data

import (
	"context"

	"ohshop-admin/internal/pagination"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ContentFilter narrows a content media listing.
type ContentFilter struct {
	CategoryID *primitive.ObjectID
	Type       string
	Pinned     *bool
}

// ContentRepository handles database operations for content media.
type ContentRepository struct {
	store[ContentMedia, *ContentMedia]
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *mongo.Database) *ContentRepository {
	return &ContentRepository{
		store: newStore[ContentMedia](db, ContentMediaCollection, bson.D{{Key: "created_at", Value: -1}}, "title", "description"),
	}
}

// List returns a page of live content media matching f.
func (r *ContentRepository) List(ctx context.Context, f ContentFilter, p pagination.Params) ([]*ContentMedia, int64, error) {
	filter := bson.M{}
	if f.CategoryID != nil {
		filter["category_id"] = *f.CategoryID
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Pinned != nil {
		filter["pinned"] = *f.Pinned
	}
	return r.list(ctx, filter, p)
}

// GetByID finds a live content item by its ID.
func (r *ContentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*ContentMedia, error) {
	return r.get(ctx, id)
}

// Create inserts a new content item.
func (r *ContentRepository) Create(ctx context.Context, c *ContentMedia) error {
	if c.Episodes == nil {
		c.Episodes = []Episode{}
	}
	if c.Media == nil {
		c.Media = []MediaItem{}
	}
	return r.insert(ctx, c)
}

// Update writes the editable fields of c.
func (r *ContentRepository) Update(ctx context.Context, c *ContentMedia) error {
	return r.set(ctx, c.ID, bson.M{
		"title":       c.Title,
		"description": c.Description,
		"type":        c.Type,
		"category_id": c.CategoryID,
		"thumbnail":   c.Thumbnail,
		"featured":    c.Featured,
		"media":       c.Media,
	})
}

// SetThumbnail replaces the thumbnail URL.
func (r *ContentRepository) SetThumbnail(ctx context.Context, id primitive.ObjectID, url string) error {
	return r.set(ctx, id, bson.M{"thumbnail": url})
}

// SetEpisodes replaces the embedded episode list.
func (r *ContentRepository) SetEpisodes(ctx context.Context, id primitive.ObjectID, episodes []Episode) error {
	return r.set(ctx, id, bson.M{"episodes": episodes})
}

// Delete soft-deletes a content item.
func (r *ContentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.softDelete(ctx, id)
}

// Toggle flips a boolean flag if it still holds expected.
func (r *ContentRepository) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) error {
	return r.toggle(ctx, id, field, expected)
}

// CountByCategory counts live content items in a category.
func (r *ContentRepository) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return r.count(ctx, bson.M{"category_id": categoryID})
}
