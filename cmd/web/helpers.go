package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/simcoach/simcoach/internal/errors"
	"github.com/simcoach/simcoach/internal/repositories"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", r.Method), slog.String("uri", r.URL.RequestURI()), errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError,
		map[string]string{"error": http.StatusText(http.StatusInternalServerError)})
}

// clientError responds with a JSON error body. The message is human-readable;
// there are no machine error codes.
func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	app.logger.Debug(http.StatusText(status), "method", r.Method, "uri", r.URL.RequestURI(), "message", message)
	app.writeJSON(w, r, status, map[string]string{"error": message})
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.clientError(w, r, http.StatusNotFound, "")
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "could not write response",
			errors.SlogError(errors.Wrap(err, "encode response")))
	}
}

// idParam parses the {id} path segment. A false return means the 400 response
// was already written.
func (app *application) idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// repositoryError maps a missing record to 404 and everything else to 500.
func (app *application) repositoryError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repositories.ErrNotFound) {
		app.notFound(w, r)
		return
	}
	app.serverError(w, r, err)
}

// readJSON decodes the request body into v, rejecting unknown fields. A false
// return means the 400 response was already written.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
