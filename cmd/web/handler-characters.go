package main

import (
	"net/http"

	"github.com/simcoach/simcoach/internal/models"
)

func (app *application) listCharacters(w http.ResponseWriter, r *http.Request) {
	characters, err := app.characters.List(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if characters == nil {
		characters = []models.Character{}
	}
	app.writeJSON(w, r, http.StatusOK, characters)
}

func (app *application) getCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	character, err := app.characters.Get(r.Context(), id)
	if err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, character)
}

func (app *application) createCharacter(w http.ResponseWriter, r *http.Request) {
	var character models.Character
	if !app.readJSON(w, r, &character) {
		return
	}
	if character.Name == "" {
		app.clientError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if err := app.characters.Create(r.Context(), &character); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, character)
}

func (app *application) updateCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	var character models.Character
	if !app.readJSON(w, r, &character) {
		return
	}
	character.ID = id
	if err := app.characters.Update(r.Context(), character); err != nil {
		app.repositoryError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, character)
}

func (app *application) deleteCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := app.idParam(w, r)
	if !ok {
		return
	}
	if err := app.characters.Delete(r.Context(), id); err != nil {
		app.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
