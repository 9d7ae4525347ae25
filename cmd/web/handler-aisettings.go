package main

import (
	"net/http"

	"github.com/simcoach/simcoach/internal/models"
)

// aiSettingRequest exists because the API key is write-only: models.AISetting
// never serializes it back out.
type aiSettingRequest struct {
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
}

func (app *application) listAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := app.aiSettings.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if settings == nil {
		settings = []models.AISetting{}
	}
	app.writeJSON(w, r, http.StatusOK, settings)
}

func (app *application) getAISetting(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	setting, err := app.aiSettings.Get(r.Context(), id)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, setting)
}

func (app *application) createAISetting(w http.ResponseWriter, r *http.Request) {
	var req aiSettingRequest
	if !app.readJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Model == "" {
		app.clientError(w, r, http.StatusBadRequest, "name and model are required")
		return
	}
	setting := models.AISetting{Name: req.Name, APIKey: req.APIKey, Model: req.Model}
	if err := app.aiSettings.Create(r.Context(), &setting); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, setting)
}

func (app *application) updateAISetting(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	var req aiSettingRequest
	if !app.readJSON(w, r, &req) {
		return
	}
	setting := models.AISetting{ID: id, Name: req.Name, APIKey: req.APIKey, Model: req.Model}
	if err := app.aiSettings.Update(r.Context(), setting); err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, setting)
}

func (app *application) deleteAISetting(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	if err := app.aiSettings.Delete(r.Context(), id); err != nil {
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
