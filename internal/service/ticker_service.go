package service

import (
	"context"
	"time"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TickerRepository defines the database operations the ticker service needs.
type TickerRepository interface {
	Toggler
	List(ctx context.Context, p pagination.Params) ([]*data.NewsTicker, int64, error)
	Visible(ctx context.Context, now time.Time) ([]*data.NewsTicker, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*data.NewsTicker, error)
	Create(ctx context.Context, t *data.NewsTicker) error
	Update(ctx context.Context, t *data.NewsTicker) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TickerInput is the editable part of a news ticker.
type TickerInput struct {
	Text     string     `json:"text" validate:"required,max=280"`
	Link     string     `json:"link" validate:"omitempty,url"`
	Active   bool       `json:"active"`
	Position int        `json:"position" validate:"min=0"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

var tickerToggles = []string{"active"}

// TickerService provides business logic for news tickers.
type TickerService struct {
	repo TickerRepository
	text *TextPolicy
	now  func() time.Time
}

// NewTickerService creates a new TickerService.
func NewTickerService(repo TickerRepository, text *TextPolicy) *TickerService {
	return &TickerService{repo: repo, text: text, now: time.Now}
}

// List returns a page of tickers.
func (s *TickerService) List(ctx context.Context, p pagination.Params) (pagination.Page[*data.NewsTicker], error) {
	items, total, err := s.repo.List(ctx, p)
	if err != nil {
		return pagination.Page[*data.NewsTicker]{}, err
	}
	return pagination.NewPage(items, total, p), nil
}

// Visible returns the tickers currently shown on the storefront.
func (s *TickerService) Visible(ctx context.Context) ([]*data.NewsTicker, error) {
	return s.repo.Visible(ctx, s.now().UTC())
}

// Get retrieves a ticker.
func (s *TickerService) Get(ctx context.Context, id primitive.ObjectID) (*data.NewsTicker, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates in and stores a new ticker.
func (s *TickerService) Create(ctx context.Context, in TickerInput) (*data.NewsTicker, error) {
	t := &data.NewsTicker{}
	if err := s.apply(t, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update validates in and overwrites the ticker's editable fields.
func (s *TickerService) Update(ctx context.Context, id primitive.ObjectID, in TickerInput) (*data.NewsTicker, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(t, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TickerService) apply(t *data.NewsTicker, in TickerInput) error {
	if err := validation.Struct(&in); err != nil {
		return err
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		return validation.Errors{{Field: "ends_at", Tag: "gtfield", Param: "starts_at", Message: "ends_at must be after starts_at"}}
	}
	t.Text = s.text.Sanitize(in.Text)
	t.Link = in.Link
	t.Active = in.Active
	t.Position = in.Position
	t.StartsAt = utcPtr(in.StartsAt)
	t.EndsAt = utcPtr(in.EndsAt)
	return nil
}

// Delete soft-deletes a ticker.
func (s *TickerService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.Delete(ctx, id)
}

// Toggle flips the active flag.
func (s *TickerService) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) (ToggleResult, error) {
	return toggleFlag(ctx, s.repo, tickerToggles, id, field, expected)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
