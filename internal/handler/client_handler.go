package handler

import (
	"context"
	"net/http"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompanyServicer is what the client routes need.
type CompanyServicer interface {
	entityService[*data.Company, service.CompanyInput]
	List(ctx context.Context, p pagination.Params) (pagination.Page[*data.Company], error)
}

// ProductServicer is what the product routes need.
type ProductServicer interface {
	entityService[*data.Product, service.ProductInput]
	List(ctx context.Context, f service.ProductFilterInput, p pagination.Params) (pagination.Page[*data.Product], error)
}

// MemberServicer is what the member routes need.
type MemberServicer interface {
	entityService[*data.Member, service.MemberInput]
	toggleService
	List(ctx context.Context, companyHex string, p pagination.Params) (pagination.Page[*data.Member], error)
}

// CustomFieldServicer is what the custom field routes need.
type CustomFieldServicer interface {
	List(ctx context.Context, entity string, p pagination.Params) (pagination.Page[*data.CustomFieldDefinition], error)
	Create(ctx context.Context, in service.CustomFieldInput) (*data.CustomFieldDefinition, error)
	Update(ctx context.Context, id primitive.ObjectID, in service.CustomFieldInput) (*data.CustomFieldDefinition, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CountryCoder looks up dialing codes.
type CountryCoder interface {
	CountryCode(region string) (service.CountryCode, error)
}

// ClientHandler serves client companies, their products and members, and custom fields.
type ClientHandler struct {
	companies CompanyServicer
	products  ProductServicer
	members   MemberServicer
	fields    CustomFieldServicer
	phone     CountryCoder
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(companies CompanyServicer, products ProductServicer, members MemberServicer, fields CustomFieldServicer, phone CountryCoder) *ClientHandler {
	return &ClientHandler{companies: companies, products: products, members: members, fields: fields, phone: phone}
}

// listClients serves GET /api/clients?page=&pageSize=&search=.
func (h *ClientHandler) listClients(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.companies.List(r.Context(), params(r))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, page)
}

func (h *ClientHandler) listProducts(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query()
	f := service.ProductFilterInput{CompanyID: q.Get("company_id"), Status: q.Get("status")}
	page, err := h.products.List(r.Context(), f, params(r))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, page)
}

func (h *ClientHandler) listMembers(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.members.List(r.Context(), r.URL.Query().Get("company_id"), params(r))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, page)
}

func (h *ClientHandler) listCustomFields(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.fields.List(r.Context(), r.URL.Query().Get("entity"), params(r))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, page)
}

func (h *ClientHandler) createCustomField(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in service.CustomFieldInput
	if appErr := decode(w, r, &in); appErr != nil {
		return appErr
	}
	def, err := h.fields.Create(r.Context(), in)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusCreated, def)
}

func (h *ClientHandler) updateCustomField(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	var in service.CustomFieldInput
	if appErr := decode(w, r, &in); appErr != nil {
		return appErr
	}
	def, err := h.fields.Update(r.Context(), id, in)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, def)
}

func (h *ClientHandler) deleteCustomField(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	if err := h.fields.Delete(r.Context(), id); err != nil {
		return fail(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// countryCode serves GET /api/phone/countries/{region}.
func (h *ClientHandler) countryCode(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	code, err := h.phone.CountryCode(chi.URLParam(r, "region"))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, code)
}
