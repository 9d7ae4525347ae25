package models

import (
	"time"
)

// User is an account identified by an opaque 64-byte WebAuthn handle. Anonymous
// users (public path playback) are rows without credentials.
type User struct {
	ID          []byte
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
}
