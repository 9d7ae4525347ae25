package main

import (
	"encoding/gob"

	"github.com/go-webauthn/webauthn/webauthn"
)

func init() {
	gob.Register(webauthn.SessionData{})
}
