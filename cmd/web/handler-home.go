package main

import (
	"html/template"
	"net/http"

	"github.com/simcoach/simcoach/internal/contexthelpers"
	"github.com/simcoach/simcoach/internal/errors"
)

// homeTemplate is the single server-rendered page. The actual UI is a SPA
// served separately; this page hosts the passkey registration and login forms
// and tells an operator the backend is up.
var homeTemplate = template.Must(template.New("home").Parse(`<!doctype html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>SimCoach</title>
</head>
<body>
<h1>SimCoach</h1>
<p>Training simulation backend. The API lives under /api.</p>
{{if .IsAuthenticated}}
<form action="/api/logout" method="post">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}"/>
    <button type="submit">Sign out</button>
</form>
{{else}}
<form action="/api/registration/start" method="post">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}"/>
    <button type="submit">Register passkey</button>
</form>
<form action="/api/login/start" method="post">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}"/>
    <button type="submit">Sign in</button>
</form>
{{end}}
</body>
</html>
`))

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := struct {
		IsAuthenticated bool
		CSRFToken       string
	}{
		IsAuthenticated: contexthelpers.IsAuthenticated(ctx),
		CSRFToken:       contexthelpers.CSRFToken(ctx),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, data); err != nil {
		app.logger.Error("could not render home", errors.SlogError(err))
	}
}
