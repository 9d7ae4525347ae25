package main

import (
	"net/http"

	"github.com/simcoach/simcoach/internal/models"
)

func (app *application) getPromptSet(w http.ResponseWriter, r *http.Request) {
	promptSet, err := app.promptSets.Get(r.Context())
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, promptSet)
}

func (app *application) putPromptSet(w http.ResponseWriter, r *http.Request) {
	var promptSet models.PromptSet
	if !app.readJSON(w, r, &promptSet) {
		return
	}
	if promptSet.SystemPrompt == "" {
		app.clientError(w, r, http.StatusBadRequest, "system_prompt is required")
		return
	}
	if err := app.promptSets.Put(r.Context(), promptSet); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, promptSet)
}
