package models

import "time"

type ChatStatus string

const (
	ChatStatusActive    ChatStatus = "active"
	ChatStatusCompleted ChatStatus = "completed"
	ChatStatusFailed    ChatStatus = "failed"
)

// Message roles follow the chat-completion convention.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one transcript entry. Evaluation metadata is attached in place:
// the player message carries its player-keypoint evaluation, the assistant
// message carries its character-keypoint evaluation and mood annotation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Evaluation is the raw evaluator output for troubleshooting prompt changes.
	Evaluation       string   `json:"evaluation,omitempty"`
	MatchedKeypoints []string `json:"matchedKeypoints,omitempty"`
	MoodLevel        *int     `json:"moodLevel,omitempty"`
	MoodAnalysis     string   `json:"moodAnalysis,omitempty"`
}

// SkillScore is one per-skill entry of an analysis report.
type SkillScore struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Evidence string  `json:"evidence"`
}

// TurnFeedback is the per-turn commentary of an analysis report.
type TurnFeedback struct {
	PlayerMessage   string `json:"player_message"`
	WhatWorked      string `json:"what_worked"`
	ImprovedVersion string `json:"improved_version"`
}

// Analysis is the structured score report produced after a chat concludes.
type Analysis struct {
	OverallScore     float64        `json:"overall_score"`
	Skills           []SkillScore   `json:"skills"`
	Strengths        []string       `json:"strengths"`
	ImprovementAreas []string       `json:"improvement_areas"`
	Turns            []TurnFeedback `json:"turns"`
}

// Chat is one conversation between a user and a simulation's character.
// Status is monotonic: active -> completed or active -> failed, never back.
type Chat struct {
	ID           string     `json:"id"`
	SimulationID int64      `json:"simulation_id"`
	UserID       []byte     `json:"-"`
	Status       ChatStatus `json:"status"`
	Messages     []Message  `json:"messages"`
	Analysis     *Analysis  `json:"analysis,omitempty"`
	AnalyzedAt   *time.Time `json:"analyzed_at,omitempty"`
	// Path linkage is set when the chat was started as a path step attempt.
	PathID           *int64    `json:"path_id,omitempty"`
	PathSimulationID *int64    `json:"path_simulation_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AssistantCount returns the number of assistant replies so far, which is what
// max_interactions limits.
func (c Chat) AssistantCount() int {
	count := 0
	for _, m := range c.Messages {
		if m.Role == RoleAssistant {
			count++
		}
	}
	return count
}
