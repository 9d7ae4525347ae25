package ai

import (
	"context"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/simcoach/simcoach/internal/errors"
)

const MaxTokens = 4096

// reasoningModelPrefixes identify models that reject temperature and forced
// JSON output. For these the evaluation parsing relies on internal/llmjson.
var reasoningModelPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

// IsReasoningModel reports whether the model name belongs to a reasoning-class
// model, detected by a name prefix check.
func IsReasoningModel(model string) bool {
	for _, prefix := range reasoningModelPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// Client wraps the OpenAI API for one AI setting (API key + model).
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a client for the given API key and model.
func NewClient(apiKey, model string) *Client {
	return NewClientWithBaseURL(apiKey, model, "")
}

// NewClientWithBaseURL creates a client pointed at a different API host.
// Tests use this to stub the upstream with httptest.
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) request(system, user string, jsonMode bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
		Model:     c.model,
		MaxTokens: MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// Reasoning-class models reject temperature and response_format.
	if IsReasoningModel(c.model) {
		return req
	}
	if jsonMode {
		req.Temperature = 0.2
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	} else {
		req.Temperature = 0.8
	}
	return req
}

// Complete performs a synchronous completion with exactly a system and a user
// message and returns the reply text.
func (c *Client) Complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	completion, err := c.client.CreateChatCompletion(ctx, c.request(system, user, jsonMode))
	if err != nil {
		return "", errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// Stream performs a streaming completion, sending each content delta to chunks
// as it arrives, and returns the accumulated reply text. The chunks channel is
// not closed; the caller owns its lifecycle.
func (c *Client) Stream(ctx context.Context, system, user string, chunks chan<- string) (string, error) {
	return c.stream(ctx, c.request(system, user, false), chunks)
}

// StreamJSON is like Stream but asks for JSON output when the model supports it.
func (c *Client) StreamJSON(ctx context.Context, system, user string, chunks chan<- string) (string, error) {
	return c.stream(ctx, c.request(system, user, true), chunks)
}

func (c *Client) stream(
	ctx context.Context, req openai.ChatCompletionRequest, chunks chan<- string) (string, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion stream")
	}
	defer stream.Close()

	var b strings.Builder
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), errors.Wrap(err, "receive chat completion chunk")
		}
		if len(response.Choices) == 0 {
			continue
		}
		delta := response.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		b.WriteString(delta)
		select {
		case chunks <- delta:
		case <-ctx.Done():
			return b.String(), errors.Wrap(ctx.Err(), "stream cancelled")
		}
	}
}

// SpeechRequest configures text-to-speech synthesis.
type SpeechRequest struct {
	Input  string
	Voice  string
	Speed  float64
	Format string
}

// Speech synthesizes speech for the given text and returns the audio stream.
// The caller must close the reader.
func (c *Client) Speech(ctx context.Context, req SpeechRequest) (io.ReadCloser, error) {
	voice := openai.SpeechVoice(req.Voice)
	if voice == "" {
		voice = openai.VoiceAlloy
	}
	format := openai.SpeechResponseFormat(req.Format)
	if format == "" {
		format = openai.SpeechResponseFormatMp3
	}
	speed := req.Speed
	if speed == 0 {
		speed = 1.0
	}
	response, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{ //nolint:exhaustruct // this is better for readability
		Model:          openai.TTSModel1,
		Input:          req.Input,
		Voice:          voice,
		Speed:          speed,
		ResponseFormat: format,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create speech")
	}
	return response, nil
}
