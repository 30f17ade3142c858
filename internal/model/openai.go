package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/genai"
)

// DefaultOpenAIBaseURL is the OpenAI endpoint; any compatible server works.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1/"

// openaiCaller calls an OpenAI-compatible chat completion endpoint with the
// tool choice set to required.
type openaiCaller struct {
	client openai.Client
	model  string
}

func newOpenAICaller(apiKey, baseURL, model string) (*openaiCaller, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	if model == "" {
		return nil, errors.New("openai: model is required for OpenAI-compatible provider")
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &openaiCaller{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(apiKey),
		),
		model: model,
	}, nil
}

func (o *openaiCaller) provider() string { return "openai" }

func toOpenAITool(fn *genai.FunctionDeclaration) openai.ChatCompletionToolUnionParam {
	return openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
		Name:        fn.Name,
		Description: openai.String(fn.Description),
		Parameters:  openai.FunctionParameters(schemaToJSON(fn.Parameters)),
	})
}

func (o *openaiCaller) callFunction(ctx context.Context, system, text string, fn *genai.FunctionDeclaration) (map[string]any, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(text),
		},
		Tools: []openai.ChatCompletionToolUnionParam{toOpenAITool(fn)},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoRequired)),
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(1024),
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.WarnContext(ctx, "openai call failed",
			"model", o.model,
			"function", fn.Name,
			"input_length", len(text),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	slog.DebugContext(ctx, "openai call completed",
		"model", o.model,
		"function", fn.Name,
		"input_tokens", resp.Usage.PromptTokens,
		"output_tokens", resp.Usage.CompletionTokens,
		"duration_ms", time.Since(start).Milliseconds())

	return toolArgs(resp, fn.Name)
}

// toolArgs decodes the JSON arguments of the first tool call to name.
func toolArgs(resp *openai.ChatCompletion, name string) (map[string]any, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, malformed("empty response from model")
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return nil, malformed("no tool call in response (expected with required mode)")
	}
	tc := calls[0]
	if tc.Type != "function" {
		return nil, malformed("unexpected tool type: %s", tc.Type)
	}
	if tc.Function.Name != name {
		return nil, malformed("unexpected function %q", tc.Function.Name)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		return nil, malformed("failed to parse function arguments: %v", err)
	}
	return args, nil
}
