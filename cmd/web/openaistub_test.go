package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

// openAIStub fakes the OpenAI API over httptest. It tells the evaluator calls
// apart by recognizable phrases of the seeded prompt templates and serves
// canned replies that tests adjust on the fly.
type openAIStub struct {
	mu               sync.Mutex
	reply            string
	playerMatches    []string
	characterMatches []string
	moodJSON         string
	analysisJSON     string
	audio            []byte
}

func newOpenAIStub() *openAIStub {
	return &openAIStub{
		reply:            "I hear you. What exactly are you going to do about it?",
		playerMatches:    []string{},
		characterMatches: []string{},
		moodJSON:         `{"analysis": "Softening slightly.", "mood_change": -5, "new_mood_level": 40}`,
		analysisJSON: `{"overall_score": 4, "skills": [{"name": "empathy", "score": 4, "evidence": "apologized early"}],` +
			` "strengths": ["stayed calm"], "improvement_areas": ["offer alternatives sooner"], "turns": []}`,
		audio: []byte("ID3stub-audio-bytes"),
	}
}

func (s *openAIStub) setMatches(player, character []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerMatches = player
	s.characterMatches = character
}

// start serves the stub for the duration of the test and returns its base URL.
func (s *openAIStub) start(t *testing.T) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", s.chatCompletions)
	mux.HandleFunc("POST /audio/speech", s.speech)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL
}

func (s *openAIStub) chatCompletions(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	system := ""
	if len(req.Messages) > 0 {
		system = req.Messages[0].Content
	}
	if req.Stream {
		s.streamCompletion(w, req)
		return
	}
	s.mu.Lock()
	var content string
	switch {
	case strings.Contains(system, "grading a trainee message"):
		content = matchedKeypointsJSON(s.playerMatches)
	case strings.Contains(system, "grading a roleplay reply"):
		content = matchedKeypointsJSON(s.characterMatches)
	case strings.Contains(system, "assessing a completed training conversation"):
		content = s.analysisJSON
	default:
		content = `{"matched_keypoints": []}`
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{ //nolint:exhaustruct // stub response
		ID:     "stub",
		Object: "chat.completion",
		Model:  req.Model,
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	})
}

// streamCompletion answers in SSE format. Mood evaluations ask for JSON output
// and get the mood verdict; everything else is the character reply, split into
// word chunks to exercise delta handling.
func (s *openAIStub) streamCompletion(w http.ResponseWriter, req openai.ChatCompletionRequest) {
	jsonMode := req.ResponseFormat != nil && req.ResponseFormat.Type == openai.ChatCompletionResponseFormatTypeJSONObject
	s.mu.Lock()
	content := s.reply
	if jsonMode {
		content = s.moodJSON
	}
	s.mu.Unlock()

	var chunks []string
	if jsonMode {
		half := len(content) / 2
		chunks = []string{content[:half], content[half:]}
	} else {
		chunks = strings.SplitAfter(content, " ")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	for _, chunk := range chunks {
		payload, err := json.Marshal(openai.ChatCompletionStreamResponse{ //nolint:exhaustruct // stub response
			ID:     "stub",
			Object: "chat.completion.chunk",
			Model:  req.Model,
			Choices: []openai.ChatCompletionStreamChoice{
				{Delta: openai.ChatCompletionStreamChoiceDelta{Content: chunk}}, //nolint:exhaustruct // stub response
			},
		})
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (s *openAIStub) speech(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	audio := s.audio
	s.mu.Unlock()
	w.Header().Set("Content-Type", "audio/mpeg")
	_, _ = w.Write(audio)
}

func matchedKeypointsJSON(matches []string) string {
	encoded, err := json.Marshal(map[string][]string{"matched_keypoints": matches})
	if err != nil {
		panic(err)
	}
	return string(encoded)
}

// requireStubReply concatenates the chunk events and checks they form the reply.
func requireStubReply(t *testing.T, reply string, chunks []string) {
	t.Helper()
	require.Equal(t, reply, strings.Join(chunks, ""))
}
