package models

// Character is an AI-roleplayed persona referenced by simulations.
type Character struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MoodID      *int64 `json:"mood_id,omitempty"`
	// Intensity is the baseline mood intensity (0-100) a chat starts from.
	Intensity int `json:"intensity"`
}
