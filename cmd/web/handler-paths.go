package main

import (
	"net/http"

	"github.com/simcoach/simcoach/internal/contexthelpers"
	"github.com/simcoach/simcoach/internal/models"
)

func (app *application) listPaths(w http.ResponseWriter, r *http.Request) {
	paths, err := app.paths.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if paths == nil {
		paths = []models.Path{}
	}
	app.writeJSON(w, r, http.StatusOK, paths)
}

func (app *application) listPublicPaths(w http.ResponseWriter, r *http.Request) {
	paths, err := app.paths.ListPublic(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if paths == nil {
		paths = []models.Path{}
	}
	app.writeJSON(w, r, http.StatusOK, paths)
}

func (app *application) getPath(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	path, err := app.paths.Get(r.Context(), id)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, path)
}

func (app *application) validPath(w http.ResponseWriter, r *http.Request, path *models.Path) bool {
	if path.Name == "" {
		app.clientError(w, r, http.StatusBadRequest, "name is required")
		return false
	}
	for _, step := range path.Steps {
		if step.SimulationID <= 0 {
			app.clientError(w, r, http.StatusBadRequest, "every step needs a simulation_id")
			return false
		}
		if step.MaxAttempts <= 0 {
			app.clientError(w, r, http.StatusBadRequest, "max_attempts must be positive")
			return false
		}
	}
	return true
}

func (app *application) createPath(w http.ResponseWriter, r *http.Request) {
	var path models.Path
	if !app.readJSON(w, r, &path) {
		return
	}
	if !app.validPath(w, r, &path) {
		return
	}
	if err := app.paths.Create(r.Context(), &path); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, path)
}

func (app *application) updatePath(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	var path models.Path
	if !app.readJSON(w, r, &path) {
		return
	}
	if !app.validPath(w, r, &path) {
		return
	}
	path.ID = id
	if err := app.paths.Update(r.Context(), path); err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, path)
}

func (app *application) deletePath(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	if err := app.paths.Delete(r.Context(), id); err != nil {
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stepProgress is the per-step view of a path for one user.
type stepProgress struct {
	PathSimulationID int64            `json:"path_simulation_id"`
	SimulationID     int64            `json:"simulation_id"`
	OrderIndex       int              `json:"order_index"`
	State            models.StepState `json:"state"`
	AttemptsUsed     int              `json:"attempts_used"`
	MaxAttempts      int              `json:"max_attempts"`
}

func (app *application) pathProgress(w http.ResponseWriter, r *http.Request) {
	app.writePathProgress(w, r, false)
}

// publicPathProgress serves guests and therefore refuses non-public paths.
func (app *application) publicPathProgress(w http.ResponseWriter, r *http.Request) {
	app.writePathProgress(w, r, true)
}

func (app *application) writePathProgress(w http.ResponseWriter, r *http.Request, publicOnly bool) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	path, err := app.paths.Get(r.Context(), id)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	if publicOnly && !path.Public {
		app.notFound(w, r)
		return
	}
	userID := contexthelpers.AuthenticatedUserID(r.Context())
	progress, err := app.paths.Progress(r.Context(), id, userID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	steps := make([]stepProgress, 0, len(path.Steps))
	for _, step := range path.Steps {
		attemptsUsed := 0
		if p := progress[step.ID]; p != nil {
			attemptsUsed = p.AttemptsUsed
		}
		steps = append(steps, stepProgress{
			PathSimulationID: step.ID,
			SimulationID:     step.SimulationID,
			OrderIndex:       step.OrderIndex,
			State:            step.State(progress[step.ID]),
			AttemptsUsed:     attemptsUsed,
			MaxAttempts:      step.MaxAttempts,
		})
	}
	app.writeJSON(w, r, http.StatusOK, map[string]any{"path_id": path.ID, "steps": steps})
}
