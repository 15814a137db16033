//go:build unit

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockTickerRepository struct {
	mockToggler
	tickers     map[primitive.ObjectID]*data.NewsTicker
	visibleAt   time.Time
	errToReturn error
}

var _ TickerRepository = (*mockTickerRepository)(nil)

func newMockTickerRepository() *mockTickerRepository {
	return &mockTickerRepository{tickers: map[primitive.ObjectID]*data.NewsTicker{}}
}

func (m *mockTickerRepository) List(ctx context.Context, p pagination.Params) ([]*data.NewsTicker, int64, error) {
	out := []*data.NewsTicker{}
	for _, t := range m.tickers {
		out = append(out, t)
	}
	return out, int64(len(out)), m.errToReturn
}

func (m *mockTickerRepository) Visible(ctx context.Context, now time.Time) ([]*data.NewsTicker, error) {
	m.visibleAt = now
	return []*data.NewsTicker{}, m.errToReturn
}

func (m *mockTickerRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*data.NewsTicker, error) {
	t, ok := m.tickers[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return t, nil
}

func (m *mockTickerRepository) Create(ctx context.Context, t *data.NewsTicker) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	t.ID = primitive.NewObjectID()
	m.tickers[t.ID] = t
	return nil
}

func (m *mockTickerRepository) Update(ctx context.Context, t *data.NewsTicker) error {
	m.tickers[t.ID] = t
	return m.errToReturn
}

func (m *mockTickerRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := m.tickers[id]; !ok {
		return data.ErrNotFound
	}
	delete(m.tickers, id)
	return nil
}

type mockImmigrationRepository struct {
	mockToggler
	services    map[primitive.ObjectID]*data.ImmigrationService
	lastCountry string
}

var _ ImmigrationRepository = (*mockImmigrationRepository)(nil)

func newMockImmigrationRepository() *mockImmigrationRepository {
	return &mockImmigrationRepository{services: map[primitive.ObjectID]*data.ImmigrationService{}}
}

func (m *mockImmigrationRepository) List(ctx context.Context, country string, p pagination.Params) ([]*data.ImmigrationService, int64, error) {
	m.lastCountry = country
	out := []*data.ImmigrationService{}
	for _, s := range m.services {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (m *mockImmigrationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*data.ImmigrationService, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return s, nil
}

func (m *mockImmigrationRepository) Create(ctx context.Context, s *data.ImmigrationService) error {
	s.ID = primitive.NewObjectID()
	m.services[s.ID] = s
	return nil
}

func (m *mockImmigrationRepository) Update(ctx context.Context, s *data.ImmigrationService) error {
	m.services[s.ID] = s
	return nil
}

func (m *mockImmigrationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	delete(m.services, id)
	return nil
}

func TestTickerService_Create(t *testing.T) {
	repo := newMockTickerRepository()
	svc := NewTickerService(repo, NewTextPolicy())
	ctx := context.Background()
	manila := time.FixedZone("PHT", 8*3600)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, manila)
	end := start.Add(48 * time.Hour)

	tk, err := svc.Create(ctx, TickerInput{Text: "Summer sale <script>alert(1)</script>", StartsAt: &start, EndsAt: &end, Active: true})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if strings.Contains(tk.Text, "<script>") {
		t.Errorf("expected the text to be sanitized, got %q", tk.Text)
	}
	if tk.StartsAt.Location() != time.UTC || !tk.StartsAt.Equal(start) {
		t.Errorf("expected the start stored in UTC, got %v", tk.StartsAt)
	}

	_, err = svc.Create(ctx, TickerInput{Text: "Backwards", StartsAt: &end, EndsAt: &start})
	var verrs validation.Errors
	if !errors.As(err, &verrs) || verrs[0].Field != "ends_at" {
		t.Errorf("expected an ends_at error, got %v", err)
	}
	if _, err := svc.Create(ctx, TickerInput{Text: "Bad link", Link: "not a url"}); !errors.As(err, &verrs) {
		t.Errorf("expected a validation error for the link, got %v", err)
	}
	if len(repo.tickers) != 1 {
		t.Errorf("rejected tickers must not be stored, got %d", len(repo.tickers))
	}
}

func TestTickerService_Visible(t *testing.T) {
	repo := newMockTickerRepository()
	svc := NewTickerService(repo, NewTextPolicy())
	fixed := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if _, err := svc.Visible(context.Background()); err != nil {
		t.Fatalf("Visible failed: %v", err)
	}
	if !repo.visibleAt.Equal(fixed) {
		t.Errorf("expected the current time to be passed through, got %v", repo.visibleAt)
	}
}

func TestTickerService_Toggle(t *testing.T) {
	repo := newMockTickerRepository()
	svc := NewTickerService(repo, NewTextPolicy())

	if _, err := svc.Toggle(context.Background(), primitive.NewObjectID(), "featured", false); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for a field tickers do not have, got %v", err)
	}
	res, err := svc.Toggle(context.Background(), primitive.NewObjectID(), "active", true)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if res.Value {
		t.Errorf("expected active to flip to false, got %+v", res)
	}
}

func TestImmigrationService_CreateAndList(t *testing.T) {
	repo := newMockImmigrationRepository()
	svc := NewImmigrationService(repo, NewTextPolicy())
	ctx := context.Background()

	it, err := svc.Create(ctx, ImmigrationInput{
		Title:        "<b>Working Visa</b>",
		Country:      "ca",
		Description:  "Bring **two** photos.",
		Requirements: []string{"Passport", "<i>Police clearance</i>"},
		Currency:     "cad",
		Fee:          150,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if it.Title != "Working Visa" || it.Country != "CA" || it.Currency != "CAD" {
		t.Errorf("unexpected service %+v", it)
	}
	if it.Requirements[1] != "Police clearance" {
		t.Errorf("expected requirements stripped of markup, got %v", it.Requirements)
	}
	if !strings.Contains(string(it.DescriptionHTML), "<strong>two</strong>") {
		t.Errorf("expected rendered markdown, got %q", it.DescriptionHTML)
	}

	page, err := svc.List(ctx, "ca", pagination.New(1, 20, ""))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if repo.lastCountry != "CA" {
		t.Errorf("expected the country filter upper-cased, got %q", repo.lastCountry)
	}
	if len(page.Data) != 1 || page.Data[0].DescriptionHTML == "" {
		t.Errorf("expected listed services to carry rendered descriptions, got %+v", page.Data)
	}

	var verrs validation.Errors
	if _, err := svc.Create(ctx, ImmigrationInput{Title: "Visa", Country: "Canada"}); !errors.As(err, &verrs) {
		t.Errorf("expected a validation error for a long country code, got %v", err)
	}
}

func TestImmigrationService_UpdateNotFound(t *testing.T) {
	svc := NewImmigrationService(newMockImmigrationRepository(), NewTextPolicy())
	_, err := svc.Update(context.Background(), primitive.NewObjectID(), ImmigrationInput{Title: "Visa", Country: "CA"})
	if !errors.Is(err, data.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
