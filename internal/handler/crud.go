package handler

import (
	"context"
	"net/http"

	"ohshop-admin/internal/metrics"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// entityService is the part of an entity service shared by every resource.
type entityService[T any, In any] interface {
	Get(ctx context.Context, id primitive.ObjectID) (T, error)
	Create(ctx context.Context, in In) (T, error)
	Update(ctx context.Context, id primitive.ObjectID, in In) (T, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// toggleService flips boolean flags.
type toggleService interface {
	Toggle(ctx context.Context, id primitive.ObjectID, field string, expected bool) (service.ToggleResult, error)
}

// crud serves get/create/update/delete for one resource.
type crud[T any, In any] struct {
	svc entityService[T, In]
}

func (c crud[T, In]) get(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	item, err := c.svc.Get(r.Context(), id)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, item)
}

func (c crud[T, In]) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in In
	if appErr := decode(w, r, &in); appErr != nil {
		return appErr
	}
	item, err := c.svc.Create(r.Context(), in)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusCreated, item)
}

func (c crud[T, In]) update(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	var in In
	if appErr := decode(w, r, &in); appErr != nil {
		return appErr
	}
	item, err := c.svc.Update(r.Context(), id, in)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, item)
}

func (c crud[T, In]) delete(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	if err := c.svc.Delete(r.Context(), id); err != nil {
		return fail(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// toggleRequest carries the flag value the client currently shows.
type toggleRequest struct {
	Field    string `json:"field"`
	Expected *bool  `json:"expected"`
}

// toggleHandler flips one flag. On failure the body carries the previous value
// so the client can revert its optimistic state.
func toggleHandler(entity string, svc toggleService) middleware.AppHandler {
	return func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		id, appErr := idParam(r)
		if appErr != nil {
			return appErr
		}
		var req toggleRequest
		if appErr := decode(w, r, &req); appErr != nil {
			return appErr
		}
		if req.Field == "" || req.Expected == nil {
			return &middleware.AppError{Error: service.ErrInvalid, Message: "field and expected are required", Code: http.StatusBadRequest,
				Fields: map[string]interface{}{"field": req.Field, "value": req.Expected != nil && *req.Expected}}
		}

		res, err := svc.Toggle(r.Context(), id, req.Field, *req.Expected)
		metrics.RecordToggle(entity, req.Field, err)
		if err != nil {
			appErr := fail(err)
			appErr.Fields = map[string]interface{}{"field": res.Field, "value": res.Value}
			return appErr
		}
		return respond(w, http.StatusOK, res)
	}
}
