package models

// AISetting holds the provider credentials and model used by a simulation.
type AISetting struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"-"`
	Model  string `json:"model"`
}
