package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave, noSurf, app.webAuthnHandler.AuthenticateMiddleware, commonContext)
	authed := session.Append(app.requireAuthenticated)
	admin := session.Append(app.requireAdmin)
	guest := session.Append(app.guestSession)
	// SSE cannot use LoadAndSave because it buffers the response.
	sse := alice.New(app.serverSentEventMiddleware, app.webAuthnHandler.AuthenticateMiddleware).Append(app.requireAuthenticated)
	sseGuest := alice.New(app.serverSentEventMiddleware, app.webAuthnHandler.AuthenticateMiddleware).Append(app.guestSession)

	mux.Handle("GET /{$}", session.ThenFunc(app.home))
	mux.Handle("GET /api/healthy", http.HandlerFunc(app.healthy))

	mux.Handle("POST /api/registration/start", session.ThenFunc(app.beginRegistration))
	mux.Handle("POST /api/registration/finish", session.ThenFunc(app.finishRegistration))
	mux.Handle("POST /api/login/start", session.ThenFunc(app.beginLogin))
	mux.Handle("POST /api/login/finish", session.ThenFunc(app.finishLogin))
	mux.Handle("POST /api/logout", session.ThenFunc(app.logout))

	mux.Handle("GET /api/characters", authed.ThenFunc(app.listCharacters))
	mux.Handle("GET /api/characters/{id}", authed.ThenFunc(app.getCharacter))
	mux.Handle("POST /api/characters", admin.ThenFunc(app.createCharacter))
	mux.Handle("PUT /api/characters/{id}", admin.ThenFunc(app.updateCharacter))
	mux.Handle("DELETE /api/characters/{id}", admin.ThenFunc(app.deleteCharacter))

	mux.Handle("GET /api/moods", authed.ThenFunc(app.listMoods))
	mux.Handle("GET /api/moods/{id}", authed.ThenFunc(app.getMood))
	mux.Handle("POST /api/moods", admin.ThenFunc(app.createMood))
	mux.Handle("PUT /api/moods/{id}", admin.ThenFunc(app.updateMood))
	mux.Handle("DELETE /api/moods/{id}", admin.ThenFunc(app.deleteMood))

	// AI settings carry API keys, so the whole resource is admin-only.
	mux.Handle("GET /api/ai-settings", admin.ThenFunc(app.listAISettings))
	mux.Handle("GET /api/ai-settings/{id}", admin.ThenFunc(app.getAISetting))
	mux.Handle("POST /api/ai-settings", admin.ThenFunc(app.createAISetting))
	mux.Handle("PUT /api/ai-settings/{id}", admin.ThenFunc(app.updateAISetting))
	mux.Handle("DELETE /api/ai-settings/{id}", admin.ThenFunc(app.deleteAISetting))

	mux.Handle("GET /api/simulations", authed.ThenFunc(app.listSimulations))
	mux.Handle("GET /api/simulations/{id}", authed.ThenFunc(app.getSimulation))
	mux.Handle("POST /api/simulations", admin.ThenFunc(app.createSimulation))
	mux.Handle("PUT /api/simulations/{id}", admin.ThenFunc(app.updateSimulation))
	mux.Handle("DELETE /api/simulations/{id}", admin.ThenFunc(app.deleteSimulation))

	mux.Handle("GET /api/prompt-set", admin.ThenFunc(app.getPromptSet))
	mux.Handle("PUT /api/prompt-set", admin.ThenFunc(app.putPromptSet))

	mux.Handle("GET /api/paths", authed.ThenFunc(app.listPaths))
	mux.Handle("GET /api/paths/{id}", authed.ThenFunc(app.getPath))
	mux.Handle("GET /api/paths/{id}/progress", authed.ThenFunc(app.pathProgress))
	mux.Handle("POST /api/paths", admin.ThenFunc(app.createPath))
	mux.Handle("PUT /api/paths/{id}", admin.ThenFunc(app.updatePath))
	mux.Handle("DELETE /api/paths/{id}", admin.ThenFunc(app.deletePath))

	mux.Handle("POST /api/chats", authed.ThenFunc(app.startChat))
	mux.Handle("GET /api/chats", authed.ThenFunc(app.listChats))
	mux.Handle("GET /api/chats/{id}", authed.ThenFunc(app.getChat))
	mux.Handle("DELETE /api/chats/{id}", admin.ThenFunc(app.deleteChat))
	mux.Handle("POST /api/chats/{id}/messages", authed.ThenFunc(app.postMessage))
	mux.Handle("GET /api/chats/{id}/stream", sse.ThenFunc(app.streamChat))
	mux.Handle("POST /api/chats/{id}/analysis", authed.ThenFunc(app.analyzeChat))
	mux.Handle("GET /api/chats/{id}/speech", authed.ThenFunc(app.chatSpeech))

	// Public surface: guests get a credential-less session user and can only
	// start chats through public paths.
	mux.Handle("GET /api/public/paths", guest.ThenFunc(app.listPublicPaths))
	mux.Handle("GET /api/public/paths/{id}/progress", guest.ThenFunc(app.publicPathProgress))
	mux.Handle("POST /api/public/chats", guest.ThenFunc(app.startPublicChat))
	mux.Handle("GET /api/public/chats/{id}", guest.ThenFunc(app.getChat))
	mux.Handle("POST /api/public/chats/{id}/messages", guest.ThenFunc(app.postMessage))
	mux.Handle("GET /api/public/chats/{id}/stream", sseGuest.ThenFunc(app.streamChat))
	mux.Handle("POST /api/public/chats/{id}/analysis", guest.ThenFunc(app.analyzeChat))
	mux.Handle("GET /api/public/chats/{id}/speech", guest.ThenFunc(app.chatSpeech))

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
