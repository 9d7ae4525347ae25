package main

import (
	"net/http"

	"github.com/simcoach/simcoach/internal/models"
)

func (app *application) listSimulations(w http.ResponseWriter, r *http.Request) {
	simulations, err := app.simulations.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if simulations == nil {
		simulations = []models.Simulation{}
	}
	app.writeJSON(w, r, http.StatusOK, simulations)
}

func (app *application) getSimulation(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	simulation, err := app.simulations.Get(r.Context(), id)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, simulation)
}

func (app *application) validSimulation(w http.ResponseWriter, r *http.Request, simulation *models.Simulation) bool {
	if simulation.Name == "" || simulation.Objective == "" {
		app.clientError(w, r, http.StatusBadRequest, "name and objective are required")
		return false
	}
	if simulation.CharacterID <= 0 || simulation.AISettingID <= 0 {
		app.clientError(w, r, http.StatusBadRequest, "character_id and ai_setting_id are required")
		return false
	}
	if simulation.MaxInteractions <= 0 {
		app.clientError(w, r, http.StatusBadRequest, "max_interactions must be positive")
		return false
	}
	return true
}

func (app *application) createSimulation(w http.ResponseWriter, r *http.Request) {
	var simulation models.Simulation
	if !app.readJSON(w, r, &simulation) {
		return
	}
	if !app.validSimulation(w, r, &simulation) {
		return
	}
	if err := app.simulations.Create(r.Context(), &simulation); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, simulation)
}

func (app *application) updateSimulation(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	var simulation models.Simulation
	if !app.readJSON(w, r, &simulation) {
		return
	}
	if !app.validSimulation(w, r, &simulation) {
		return
	}
	simulation.ID = id
	if err := app.simulations.Update(r.Context(), simulation); err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, simulation)
}

func (app *application) deleteSimulation(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	if err := app.simulations.Delete(r.Context(), id); err != nil {
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
