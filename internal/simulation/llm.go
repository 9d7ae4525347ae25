package simulation

import (
	"context"

	"github.com/simcoach/simcoach/internal/models"
)

// LLM is the completion surface the orchestrator needs. *ai.Client implements
// it; tests substitute a scripted fake.
type LLM interface {
	// Complete performs a synchronous completion with a system and a user message.
	Complete(ctx context.Context, system, user string, jsonMode bool) (string, error)
	// Stream performs a streaming completion, forwarding deltas to chunks, and
	// returns the accumulated text. The channel is not closed by the callee.
	Stream(ctx context.Context, system, user string, chunks chan<- string) (string, error)
	// StreamJSON is Stream with JSON output requested when the model supports it.
	StreamJSON(ctx context.Context, system, user string, chunks chan<- string) (string, error)
}

// LLMFactory builds a client for the AI setting a simulation is configured
// with. Each setting carries its own API key and model.
type LLMFactory func(setting models.AISetting) LLM
