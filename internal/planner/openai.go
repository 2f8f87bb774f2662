package planner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperengineering/vita/internal/types"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Compile-time interface check
var _ Generator = (*OpenAI)(nil)

// ChatService defines the interface for making chat completion API calls.
// This abstraction enables testing without calling the real OpenAI API.
type ChatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI implements the plan generator using OpenAI's chat completions API.
type OpenAI struct {
	chat  ChatService
	model openai.ChatModel
}

// NewOpenAI creates a new OpenAI plan generator.
func NewOpenAI(apiKey, model string) *OpenAI {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		chat:  client.Chat.Completions,
		model: openai.ChatModel(model),
	}
}

// Generate builds the prompt for the profile, calls the chat API and
// parses the response. The returned payload is always shape-valid; any
// transport, parse or shape failure is an error.
func (o *OpenAI) Generate(ctx context.Context, profile types.Profile, start, end types.Date) (*Result, error) {
	prompt := buildPrompt(profile, start, end)

	resp, err := o.chat.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a certified fitness and nutrition coach. You respond only with valid JSON."),
			openai.UserMessage(prompt),
		}),
		Model: openai.F(o.model),
		ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONObjectParam{
				Type: openai.F(openai.ResponseFormatJSONObjectTypeJSONObject),
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("plan generation failed: no choices returned")
	}
	raw := resp.Choices[0].Message.Content

	var plan types.GeneratedPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("parse generated plan: %w", err)
	}

	if err := ValidatePlan(&plan); err != nil {
		return nil, fmt.Errorf("generated plan rejected: %w", err)
	}

	return &Result{Plan: &plan, Prompt: prompt, Raw: raw}, nil
}

// ModelName returns the chat model name.
func (o *OpenAI) ModelName() string {
	return string(o.model)
}
