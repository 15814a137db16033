package service

import (
	"context"
	"sort"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentRepository defines the database operations the content service needs.
type ContentRepository interface {
	Toggler
	List(ctx context.Context, f data.ContentFilter, p pagination.Params) ([]*data.ContentMedia, int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.ContentMedia, error)
	Create(ctx context.Context, c *data.ContentMedia) error
	Update(ctx context.Context, c *data.ContentMedia) error
	SetThumbnail(ctx context.Context, id primitive.ObjectID, url string) error
	SetEpisodes(ctx context.Context, id primitive.ObjectID, episodes []data.Episode) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CategoryLookup is the part of the category repository content needs.
type CategoryLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.Category, error)
}

// ContentInput is the editable part of a content item.
type ContentInput struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=10000"`
	Type        string           `json:"type" validate:"required,oneof=video series image article"`
	CategoryID  string           `json:"category_id" validate:"required,len=24,hexadecimal"`
	Thumbnail   string           `json:"thumbnail" validate:"max=2048"`
	Featured    bool             `json:"featured"`
	Media       []data.MediaItem `json:"media" validate:"dive"`
}

// EpisodeInput describes an episode to add.
type EpisodeInput struct {
	Number          int    `json:"number" validate:"min=1"`
	Title           string `json:"title" validate:"required,max=200"`
	URL             string `json:"url" validate:"required,max=2048"`
	DurationSeconds int    `json:"duration_seconds" validate:"min=0"`
}

// pinned is owned by category pins, see CategoryService.PinContent.
var contentToggles = []string{"featured"}

// ContentFilterInput carries raw list filters from a request.
type ContentFilterInput struct {
	CategoryID string
	Type       string
}

// ContentService provides business logic for managing content media.
type ContentService struct {
	repo       ContentRepository
	categories CategoryLookup
	text       *TextPolicy
}

// NewContentService creates a new ContentService.
func NewContentService(repo ContentRepository, categories CategoryLookup, text *TextPolicy) *ContentService {
	return &ContentService{repo: repo, categories: categories, text: text}
}

// List returns a page of content media.
func (s *ContentService) List(ctx context.Context, f ContentFilterInput, p pagination.Params) (pagination.Page[*data.ContentMedia], error) {
	filter := data.ContentFilter{Type: f.Type}
	categoryID, err := optionalID(f.CategoryID)
	if err != nil {
		return pagination.Page[*data.ContentMedia]{}, err
	}
	filter.CategoryID = categoryID

	items, total, err := s.repo.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[*data.ContentMedia]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// Get retrieves a content item.
func (s *ContentService) Get(ctx context.Context, id primitive.ObjectID) (*data.ContentMedia, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in and stores a new content item under an existing category.
func (s *ContentService) Create(ctx context.Context, in ContentInput) (*data.ContentMedia, error) {
	c := &data.ContentMedia{}
	if err := s.apply(ctx, c, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update validates in and overwrites the content item's editable fields.
func (s *ContentService) Update(ctx context.Context, id primitive.ObjectID, in ContentInput) (*data.ContentMedia, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, c, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContentService) apply(ctx context.Context, c *data.ContentMedia, in ContentInput) error {
	if err := validation.Struct(&in); err != nil {
		return err
	}
	categoryID, err := ParseID(in.CategoryID)
	if err != nil {
		return err
	}
	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		return err
	}
	c.Title = s.text.Plain(in.Title)
	c.Description = s.text.Sanitize(in.Description)
	c.Type = in.Type
	c.CategoryID = categoryID
	c.Thumbnail = in.Thumbnail
	c.Featured = in.Featured
	c.Media = in.Media
	if c.Media == nil {
		c.Media = []data.MediaItem{}
	}
	return nil
}

// SetThumbnail stores a new thumbnail URL for the content item.
func (s *ContentService) SetThumbnail(ctx context.Context, id primitive.ObjectID, url string) error {
	return s.repo.SetThumbnail(ctx, id, url)
}

// Delete soft-deletes a content item.
func (s *ContentService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

// Toggle flips the featured flag.
func (s *ContentService) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) (ToggleResult, error) {
	return toggleFlag(ctx, s.repo, contentToggles, id, field, expected)
}

// AddEpisode appends an episode to a series. Episode numbers are unique; a zero
// number takes the next free one.
func (s *ContentService) AddEpisode(ctx context.Context, id primitive.ObjectID, in EpisodeInput) (*data.ContentMedia, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Type != "series" {
		return nil, invalidf("episodes can only be added to series content")
	}
	if in.Number == 0 {
		in.Number = nextEpisodeNumber(c.Episodes)
	}
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	for _, e := range c.Episodes {
		if e.Number == in.Number {
			return nil, invalidf("episode %d already exists", in.Number)
		}
	}

	c.Episodes = append(c.Episodes, data.Episode{
		Number:          in.Number,
		Title:           s.text.Plain(in.Title),
		URL:             in.URL,
		DurationSeconds: in.DurationSeconds,
	})
	sort.Slice(c.Episodes, func(i, j int) bool { return c.Episodes[i].Number < c.Episodes[j].Number })
	if err := s.repo.SetEpisodes(ctx, id, c.Episodes); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveEpisode deletes the episode with the given number.
func (s *ContentService) RemoveEpisode(ctx context.Context, id primitive.ObjectID, number int) (*data.ContentMedia, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	kept := make([]data.Episode, 0, len(c.Episodes))
	for _, e := range c.Episodes {
		if e.Number != number {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(c.Episodes) {
		return nil, data.ErrNotFound
	}
	if err := s.repo.SetEpisodes(ctx, id, kept); err != nil {
		return nil, err
	}
	c.Episodes = kept
	return c, nil
}

func nextEpisodeNumber(episodes []data.Episode) int {
	next := 1
	for _, e := range episodes {
		if e.Number >= next {
			next = e.Number + 1
		}
	}
	return next
}
