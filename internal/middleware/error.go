package middleware

import (
	"fmt"
	"net/http"

	"ohshop-admin/internal/logger"

	"github.com/goccy/go-json"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
	// Fields are merged into the JSON error body.
	Fields map[string]interface{}
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// Renderer renders an HTML page.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) error
}

// Error is a middleware that converts handler errors into JSON bodies for the
// API and error pages for everything else.
func Error(log logger.Logger, view Renderer) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					write(w, r, view, log, &AppError{Error: err, Message: "Internal Server Error", Code: http.StatusInternalServerError})
				}
			}()

			if err := next(w, r); err != nil {
				if err.Code >= http.StatusInternalServerError {
					log.Error(err.Error, err.Message)
				} else {
					log.Debug(fmt.Sprintf("%s %s: %d %s: %v", r.Method, r.URL.Path, err.Code, err.Message, err.Error))
				}
				write(w, r, view, log, err)
			}
		})
	}
}

func write(w http.ResponseWriter, r *http.Request, view Renderer, log logger.Logger, e *AppError) {
	if isAPI(r) || view == nil {
		WriteError(w, r, e)
		return
	}
	data := map[string]interface{}{
		"StatusCode": e.Code,
		"StatusText": e.Message,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(e.Code)
	if err := view.Render(w, r, "error.html", data); err != nil {
		log.Error(err, "Failed to render error page")
	}
}

// WriteError writes e as a JSON body of the form {"error": message, ...fields}.
func WriteError(w http.ResponseWriter, r *http.Request, e *AppError) {
	body := make(map[string]interface{}, len(e.Fields)+1)
	for k, v := range e.Fields {
		body[k] = v
	}
	body["error"] = e.Message
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Code)
	_ = json.NewEncoder(w).Encode(body)
}
