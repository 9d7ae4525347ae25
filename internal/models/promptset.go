package models

// PromptSet is the singleton record holding the prompt templates. Empty evaluator
// prompts disable the corresponding evaluation step.
type PromptSet struct {
	SystemPrompt            string `json:"system_prompt"`
	CharacterKeypointPrompt string `json:"character_keypoint_prompt"`
	PlayerKeypointPrompt    string `json:"player_keypoint_prompt"`
	MoodPrompt              string `json:"mood_prompt"`
	AnalysisPrompt          string `json:"analysis_prompt"`
}
