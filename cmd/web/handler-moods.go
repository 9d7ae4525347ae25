package main

import (
	"net/http"

	"github.com/simcoach/simcoach/internal/models"
)

func (app *application) listMoods(w http.ResponseWriter, r *http.Request) {
	moods, err := app.moods.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if moods == nil {
		moods = []models.Mood{}
	}
	app.writeJSON(w, r, http.StatusOK, moods)
}

func (app *application) getMood(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	mood, err := app.moods.Get(r.Context(), id)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, mood)
}

func validMoodBehaviors(behaviors []models.MoodBehavior) bool {
	for _, behavior := range behaviors {
		if behavior.ThresholdPercentage < 0 || behavior.ThresholdPercentage > 100 {
			return false
		}
	}
	return true
}

func (app *application) createMood(w http.ResponseWriter, r *http.Request) {
	var mood models.Mood
	if !app.readJSON(w, r, &mood) {
		return
	}
	if mood.Name == "" {
		app.clientError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if !validMoodBehaviors(mood.Behaviors) {
		app.clientError(w, r, http.StatusBadRequest, "behavior thresholds must be between 0 and 100")
		return
	}
	if err := app.moods.Create(r.Context(), &mood); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, mood)
}

func (app *application) updateMood(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	var mood models.Mood
	if !app.readJSON(w, r, &mood) {
		return
	}
	if !validMoodBehaviors(mood.Behaviors) {
		app.clientError(w, r, http.StatusBadRequest, "behavior thresholds must be between 0 and 100")
		return
	}
	mood.ID = id
	if err := app.moods.Update(r.Context(), mood); err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, mood)
}

func (app *application) deleteMood(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	if err := app.moods.Delete(r.Context(), id); err != nil {
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
