//go:build unit

package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/logger"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/service"
	"ohshop-admin/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockCategoryService is a mock of the category routes' service.
type mockCategoryService struct {
	item        *data.Category
	errToReturn error
	toggleRes   service.ToggleResult
	lastInput   service.CategoryInput
	lastField   string
	lastExpect  bool
}

var _ entityService[*data.Category, service.CategoryInput] = (*mockCategoryService)(nil)
var _ toggleService = (*mockCategoryService)(nil)

func (m *mockCategoryService) Get(ctx context.Context, id primitive.ObjectID) (*data.Category, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	return m.item, nil
}

func (m *mockCategoryService) Create(ctx context.Context, in service.CategoryInput) (*data.Category, error) {
	m.lastInput = in
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	return &data.Category{Name: in.Name, Slug: "slug"}, nil
}

func (m *mockCategoryService) Update(ctx context.Context, id primitive.ObjectID, in service.CategoryInput) (*data.Category, error) {
	m.lastInput = in
	return m.item, m.errToReturn
}

func (m *mockCategoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return m.errToReturn
}

func (m *mockCategoryService) Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) (service.ToggleResult, error) {
	m.lastField = field
	m.lastExpect = expected
	return m.toggleRes, m.errToReturn
}

// mockCompanyService serves a fixed list of companies.
type mockCompanyService struct {
	mockEntity[*data.Company, service.CompanyInput]
	companies  []*data.Company
	lastParams pagination.Params
}

var _ CompanyServicer = (*mockCompanyService)(nil)

func (m *mockCompanyService) List(ctx context.Context, p pagination.Params) (pagination.Page[*data.Company], error) {
	m.lastParams = p
	return pagination.NewPage(m.companies, int64(len(m.companies)), p), nil
}

// mockEntity satisfies entityService with not-found answers.
type mockEntity[T any, In any] struct{}

func (mockEntity[T, In]) Get(ctx context.Context, id primitive.ObjectID) (T, error) {
	var zero T
	return zero, data.ErrNotFound
}

func (mockEntity[T, In]) Create(ctx context.Context, in In) (T, error) {
	var zero T
	return zero, data.ErrNotFound
}

func (mockEntity[T, In]) Update(ctx context.Context, id primitive.ObjectID, in In) (T, error) {
	var zero T
	return zero, data.ErrNotFound
}

func (mockEntity[T, In]) Delete(ctx context.Context, id primitive.ObjectID) error {
	return data.ErrNotFound
}

func newCategoryRouter(svc *mockCategoryService) *chi.Mux {
	h := middleware.Error(logger.Nop(), nil)
	cr := crud[*data.Category, service.CategoryInput]{svc: svc}
	r := chi.NewRouter()
	r.Method(http.MethodPost, "/api/categories", h(cr.create))
	r.Method(http.MethodGet, "/api/categories/{id}", h(cr.get))
	r.Method(http.MethodPut, "/api/categories/{id}", h(cr.update))
	r.Method(http.MethodDelete, "/api/categories/{id}", h(cr.delete))
	r.Method(http.MethodPost, "/api/categories/{id}/toggle", h(toggleHandler(data.CategoriesCollection, svc)))
	return r
}

func serve(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var decoded map[string]interface{}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("response is not a JSON object: %v (%s)", err, rr.Body.String())
		}
	}
	return rr, decoded
}

func TestCrud_Create(t *testing.T) {
	svc := &mockCategoryService{}
	r := newCategoryRouter(svc)

	rr, body := serve(t, r, http.MethodPost, "/api/categories", `{"name":"Travel","active":true}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if body["name"] != "Travel" {
		t.Errorf("unexpected body %v", body)
	}
	if !svc.lastInput.Active {
		t.Error("input was not decoded")
	}
}

func TestCrud_Create_BadBodies(t *testing.T) {
	r := newCategoryRouter(&mockCategoryService{})

	rr, body := serve(t, r, http.MethodPost, "/api/categories", `{"name":`)
	if rr.Code != http.StatusBadRequest || body["error"] == nil {
		t.Errorf("expected 400 for malformed JSON, got %d %v", rr.Code, body)
	}
	rr, body = serve(t, r, http.MethodPost, "/api/categories", ``)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an empty body, got %d %v", rr.Code, body)
	}
}

func TestCrud_Create_ValidationDetails(t *testing.T) {
	svc := &mockCategoryService{errToReturn: validation.Errors{{Field: "name", Tag: "required", Message: "name is required"}}}
	r := newCategoryRouter(svc)

	rr, body := serve(t, r, http.MethodPost, "/api/categories", `{}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	details, ok := body["details"].([]interface{})
	if !ok || len(details) != 1 {
		t.Fatalf("expected one detail, got %v", body["details"])
	}
	if d := details[0].(map[string]interface{}); d["field"] != "name" {
		t.Errorf("unexpected detail %v", d)
	}
}

func TestCrud_Get(t *testing.T) {
	id := primitive.NewObjectID()
	svc := &mockCategoryService{item: &data.Category{Name: "Food"}}
	r := newCategoryRouter(svc)

	rr, body := serve(t, r, http.MethodGet, "/api/categories/"+id.Hex(), "")
	if rr.Code != http.StatusOK || body["name"] != "Food" {
		t.Errorf("expected 200 with the category, got %d %v", rr.Code, body)
	}

	rr, body = serve(t, r, http.MethodGet, "/api/categories/not-an-id", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed id, got %d %v", rr.Code, body)
	}

	svc.errToReturn = fmt.Errorf("category %s: %w", id.Hex(), data.ErrNotFound)
	rr, body = serve(t, r, http.MethodGet, "/api/categories/"+id.Hex(), "")
	if rr.Code != http.StatusNotFound || body["error"] != "Not found" {
		t.Errorf("expected 404, got %d %v", rr.Code, body)
	}
}

func TestCrud_Delete(t *testing.T) {
	r := newCategoryRouter(&mockCategoryService{})

	rr, _ := serve(t, r, http.MethodDelete, "/api/categories/"+primitive.NewObjectID().Hex(), "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
}

func TestToggleHandler(t *testing.T) {
	id := primitive.NewObjectID().Hex()

	t.Run("success returns the new value", func(t *testing.T) {
		svc := &mockCategoryService{toggleRes: service.ToggleResult{Field: "active", Value: true}}
		rr, body := serve(t, newCategoryRouter(svc), http.MethodPost, "/api/categories/"+id+"/toggle", `{"field":"active","expected":false}`)
		if rr.Code != http.StatusOK || body["value"] != true {
			t.Errorf("expected 200 with value true, got %d %v", rr.Code, body)
		}
		if svc.lastField != "active" || svc.lastExpect {
			t.Errorf("service got field=%q expected=%v", svc.lastField, svc.lastExpect)
		}
	})

	t.Run("conflict returns the previous value", func(t *testing.T) {
		svc := &mockCategoryService{
			toggleRes:   service.ToggleResult{Field: "featured", Value: true},
			errToReturn: data.ErrConflict,
		}
		rr, body := serve(t, newCategoryRouter(svc), http.MethodPost, "/api/categories/"+id+"/toggle", `{"field":"featured","expected":true}`)
		if rr.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rr.Code)
		}
		if body["field"] != "featured" || body["value"] != true || body["error"] == nil {
			t.Errorf("unexpected failure body %v", body)
		}
	})

	t.Run("missing expected is rejected", func(t *testing.T) {
		svc := &mockCategoryService{}
		rr, body := serve(t, newCategoryRouter(svc), http.MethodPost, "/api/categories/"+id+"/toggle", `{"field":"active"}`)
		if rr.Code != http.StatusBadRequest || body["field"] != "active" {
			t.Errorf("expected 400 naming the field, got %d %v", rr.Code, body)
		}
		if svc.lastField != "" {
			t.Error("service should not be called")
		}
	})
}

func TestFail(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", validation.Errors{{Field: "x"}}, http.StatusUnprocessableEntity},
		{"not found", fmt.Errorf("wrapped: %w", data.ErrNotFound), http.StatusNotFound},
		{"conflict", data.ErrConflict, http.StatusConflict},
		{"duplicate", data.ErrDuplicate, http.StatusConflict},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid", fmt.Errorf("%w: bad", service.ErrInvalid), http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := fail(tc.err); got.Code != tc.want {
				t.Errorf("fail(%v).Code = %d, want %d", tc.err, got.Code, tc.want)
			}
		})
	}
	if got := fail(errors.New("secret detail")); got.Message != "Internal Server Error" {
		t.Errorf("internal errors must not leak, got %q", got.Message)
	}
}

func TestListClients_Pagination(t *testing.T) {
	companies := &mockCompanyService{companies: []*data.Company{{Name: "Acme"}, {Name: "Globex"}}}
	h := NewClientHandler(companies, nil, nil, nil, nil)
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/api/clients", middleware.Error(logger.Nop(), nil)(h.listClients))

	rr, body := serve(t, r, http.MethodGet, "/api/clients?page=1&pageSize=500&search=ac", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if companies.lastParams.PageSize != pagination.MaxPageSize || companies.lastParams.Search != "ac" {
		t.Errorf("unexpected params %+v", companies.lastParams)
	}
	meta, ok := body["pagination"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing pagination block: %v", body)
	}
	if meta["total"] != float64(2) || meta["hasNext"] != false {
		t.Errorf("unexpected pagination %v", meta)
	}
	if list, _ := body["data"].([]interface{}); len(list) != 2 {
		t.Errorf("expected 2 companies, got %v", body["data"])
	}
}

func TestErrorMiddleware_RecoversPanics(t *testing.T) {
	h := middleware.Error(logger.Nop(), nil)(func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		panic("kaboom")
	})
	rr, body := serve(t, h, http.MethodGet, "/api/anything", "")
	if rr.Code != http.StatusInternalServerError || body["error"] != "Internal Server Error" {
		t.Errorf("expected a 500 JSON body, got %d %v", rr.Code, body)
	}
}
