package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash-lite"

// geminiCaller calls Gemini with function calling forced to ANY mode.
type geminiCaller struct {
	client *genai.Client
	model  string
}

func newGeminiCaller(ctx context.Context, apiKey, model string) (*geminiCaller, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiCaller{client: client, model: model}, nil
}

func (g *geminiCaller) provider() string { return "gemini" }

func (g *geminiCaller) callFunction(ctx context.Context, system, text string, fn *genai.FunctionDeclaration) (map[string]any, error) {
	config := &genai.GenerateContentConfig{
		Tools:             []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{fn}}},
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ToolConfig: &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{fn.Name},
			},
		},
		Temperature:     genai.Ptr[float32](0.1),
		MaxOutputTokens: 1024,
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(text), config)
	if err != nil {
		slog.WarnContext(ctx, "gemini call failed",
			"model", g.model,
			"function", fn.Name,
			"input_length", len(text),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("generate content failed: %w", err)
	}

	if result.UsageMetadata != nil {
		slog.DebugContext(ctx, "gemini call completed",
			"model", g.model,
			"function", fn.Name,
			"input_tokens", result.UsageMetadata.PromptTokenCount,
			"output_tokens", result.UsageMetadata.CandidatesTokenCount,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return functionArgs(result, fn.Name)
}

// functionArgs returns the arguments of the first call to name.
func functionArgs(result *genai.GenerateContentResponse, name string) (map[string]any, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, malformed("empty response from model")
	}
	candidate := result.Candidates[0]
	if candidate.Content == nil {
		return nil, malformed("no content in response")
	}
	for _, part := range candidate.Content.Parts {
		if part.FunctionCall == nil {
			continue
		}
		if part.FunctionCall.Name != name {
			return nil, malformed("unexpected function %q", part.FunctionCall.Name)
		}
		return part.FunctionCall.Args, nil
	}
	return nil, malformed("no function call in response (expected with ANY mode)")
}
