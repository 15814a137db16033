package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"ohshop-admin/internal/data"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/pagination"
	"ohshop-admin/internal/service"
	"ohshop-admin/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// decode reads a JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) *middleware.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &middleware.AppError{Error: err, Message: "Request body is empty", Code: http.StatusBadRequest}
		}
		return &middleware.AppError{Error: err, Message: "Malformed JSON body", Code: http.StatusBadRequest}
	}
	return nil
}

// respond writes v as JSON with the given status.
func respond(w http.ResponseWriter, status int, v interface{}) *middleware.AppError {
	body, err := json.Marshal(v)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to encode response", Code: http.StatusInternalServerError}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	return nil
}

// fail maps a service error onto an HTTP error.
func fail(err error) *middleware.AppError {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return &middleware.AppError{Error: err, Message: "Validation failed", Code: http.StatusUnprocessableEntity,
			Fields: map[string]interface{}{"details": []validation.FieldError(verrs)}}
	case errors.Is(err, data.ErrNotFound):
		return &middleware.AppError{Error: err, Message: "Not found", Code: http.StatusNotFound}
	case errors.Is(err, data.ErrConflict), errors.Is(err, data.ErrDuplicate):
		return &middleware.AppError{Error: err, Message: err.Error(), Code: http.StatusConflict}
	case errors.Is(err, service.ErrInvalidCredentials):
		return &middleware.AppError{Error: err, Message: err.Error(), Code: http.StatusUnauthorized}
	case errors.Is(err, service.ErrInvalid):
		return &middleware.AppError{Error: err, Message: err.Error(), Code: http.StatusBadRequest}
	default:
		return &middleware.AppError{Error: err, Message: "Internal Server Error", Code: http.StatusInternalServerError}
	}
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (primitive.ObjectID, *middleware.AppError) {
	id, err := service.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, fail(err)
	}
	return id, nil
}

// intParam parses a numeric URL parameter.
func intParam(r *http.Request, name string) (int, *middleware.AppError) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, &middleware.AppError{Error: err, Message: "Malformed " + name, Code: http.StatusBadRequest}
	}
	return n, nil
}

func params(r *http.Request) pagination.Params {
	return pagination.Parse(r)
}

// currentUserID returns the id of the signed-in admin.
func currentUserID(r *http.Request) (primitive.ObjectID, *middleware.AppError) {
	info := middleware.GetUserInfo(r.Context())
	id, err := primitive.ObjectIDFromHex(info.ID)
	if err != nil {
		return primitive.NilObjectID, &middleware.AppError{Error: errors.New("no signed-in user"), Message: "Authentication required", Code: http.StatusUnauthorized}
	}
	return id, nil
}
