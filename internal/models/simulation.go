package models

// Simulation configures one training scenario against a character.
type Simulation struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Objective string `json:"objective"`
	Context   string `json:"context"`
	// Rules holds legacy inline rules from before prompt sets; appended to the system prompt when present.
	Rules       string `json:"rules,omitempty"`
	CharacterID int64  `json:"character_id"`
	AISettingID int64  `json:"ai_setting_id"`
	// CharacterKeypoints are facts the character should surface; PlayerKeypoints are facts the
	// trainee should surface. Both are tracked as matched/unmatched per chat.
	CharacterKeypoints []string `json:"character_keypoints"`
	PlayerKeypoints    []string `json:"player_keypoints"`
	// MaxInteractions caps the number of assistant replies before the chat fails.
	MaxInteractions int `json:"max_interactions"`
}
