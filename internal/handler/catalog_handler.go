package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategoryServicer is what the category routes need.
type CategoryServicer interface {
	entityService[*data.Category, service.CategoryInput]
	toggleService
	List(ctx context.Context, p pagination.Params) (pagination.Page[*data.Category], error)
	SetLogo(ctx context.Context, id primitive.ObjectID, url string) error
	Reorder(ctx context.Context, ids []primitive.ObjectID) error
	PinContent(ctx context.Context, categoryID, contentID primitive.ObjectID, pinned bool) (service.ToggleResult, error)
}

// ContentServicer is what the content media routes need.
type ContentServicer interface {
	entityService[*data.ContentMedia, service.ContentInput]
	toggleService
	List(ctx context.Context, f service.ContentFilterInput, p pagination.Params) (pagination.Page[*data.ContentMedia], error)
	SetThumbnail(ctx context.Context, id primitive.ObjectID, url string) error
	AddEpisode(ctx context.Context, id primitive.ObjectID, in service.EpisodeInput) (*data.ContentMedia, error)
	RemoveEpisode(ctx context.Context, id primitive.ObjectID, number int) (*data.ContentMedia, error)
}

// ImageStorer stores uploaded images.
type ImageStorer interface {
	StoreImage(kind service.ImageKind, userID, originalName string, r io.Reader) (*service.Upload, error)
	Delete(id string) error
}

// CatalogHandler serves categories and content media.
type CatalogHandler struct {
	categories CategoryServicer
	content    ContentServicer
	images     ImageStorer
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(categories CategoryServicer, content ContentServicer, images ImageStorer) *CatalogHandler {
	return &CatalogHandler{categories: categories, content: content, images: images}
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.categories.List(r.Context(), params(r))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, page)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (h *CatalogHandler) reorderCategories(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req reorderRequest
	if appErr := decode(w, r, &req); appErr != nil {
		return appErr
	}
	ids := make([]primitive.ObjectID, 0, len(req.IDs))
	for _, hex := range req.IDs {
		id, err := service.ParseID(hex)
		if err != nil {
			return fail(err)
		}
		ids = append(ids, id)
	}
	if err := h.categories.Reorder(r.Context(), ids); err != nil {
		return fail(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type pinRequest struct {
	ContentID string `json:"content_id"`
	Pinned    bool   `json:"pinned"`
}

func (h *CatalogHandler) pinContent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	categoryID, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	var req pinRequest
	if appErr := decode(w, r, &req); appErr != nil {
		return appErr
	}
	contentID, err := service.ParseID(req.ContentID)
	if err != nil {
		return fail(err)
	}
	res, err := h.categories.PinContent(r.Context(), categoryID, contentID, req.Pinned)
	if err != nil {
		appErr := fail(err)
		appErr.Fields = map[string]interface{}{"field": res.Field, "value": res.Value}
		return appErr
	}
	return respond(w, http.StatusOK, res)
}

func (h *CatalogHandler) uploadLogo(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.upload(w, r, service.Logo, h.categories.SetLogo)
}

func (h *CatalogHandler) listContent(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	q := r.URL.Query()
	f := service.ContentFilterInput{CategoryID: q.Get("category_id"), Type: q.Get("type")}
	page, err := h.content.List(r.Context(), f, params(r))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, page)
}

func (h *CatalogHandler) uploadThumbnail(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.upload(w, r, service.Thumbnail, h.content.SetThumbnail)
}

func (h *CatalogHandler) addEpisode(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	var in service.EpisodeInput
	if appErr := decode(w, r, &in); appErr != nil {
		return appErr
	}
	item, err := h.content.AddEpisode(r.Context(), id, in)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusCreated, item)
}

func (h *CatalogHandler) removeEpisode(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	number, appErr := intParam(r, "number")
	if appErr != nil {
		return appErr
	}
	item, err := h.content.RemoveEpisode(r.Context(), id, number)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, item)
}

// upload stores the multipart "file" of the request and attaches its URL with set.
func (h *CatalogHandler) upload(w http.ResponseWriter, r *http.Request, kind service.ImageKind, set func(context.Context, primitive.ObjectID, string) error) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadBytes+1<<16)
	file, header, err := r.FormFile("file")
	if err != nil {
		return &middleware.AppError{Error: err, Message: "A multipart file field named \"file\" is required", Code: http.StatusBadRequest}
	}
	defer file.Close()

	up, err := h.images.StoreImage(kind, middleware.GetUserInfo(r.Context()).ID, header.Filename, file)
	if err != nil {
		return fail(err)
	}
	if err := set(r.Context(), id, up.URL); err != nil {
		// The target is gone or unwritable, so the stored file would be orphaned.
		if delErr := h.images.Delete(up.ID); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return fail(err)
	}
	return respond(w, http.StatusCreated, up)
}
