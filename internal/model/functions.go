package model

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

// Function names the remote services are forced to call.
const (
	FuncClassifyIntent = "classify_intent"
	FuncTagTokens      = "tag_tokens"
)

// classifyFunction declares classify_intent{label, probability}.
func classifyFunction() *genai.FunctionDeclaration {
	labels := make([]string, 0, len(nlu.KnownIntents))
	for _, in := range nlu.KnownIntents {
		labels = append(labels, in.String())
	}
	return &genai.FunctionDeclaration{
		Name:        FuncClassifyIntent,
		Description: "Report the intent of a student's message.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"label": {
					Type:        genai.TypeString,
					Description: "One of: " + strings.Join(labels, ", "),
					Enum:        labels,
				},
				"probability": {
					Type:        genai.TypeNumber,
					Description: "Confidence in the label, between 0 and 1.",
				},
			},
			Required: []string{"label", "probability"},
		},
	}
}

// tagFunction declares tag_tokens{tokens[], labels[]}.
func tagFunction() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        FuncTagTokens,
		Description: "Report BIO entity labels for each token of the message.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"tokens": {
					Type:        genai.TypeArray,
					Description: "The message split into word and punctuation tokens, in order.",
					Items:       &genai.Schema{Type: genai.TypeString},
				},
				"labels": {
					Type:        genai.TypeArray,
					Description: "One label per token: O, B-<TYPE> or I-<TYPE>.",
					Items:       &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"tokens", "labels"},
		},
	}
}

const classifierPrompt = `You classify short messages a student sends to a study companion app.
Call classify_intent exactly once.
- grade_tracking: reporting a score or grade ("got 85% on the calc midterm").
- scheduled_event: a recurring class or activity ("chem lab every tuesday at 2pm").
- event_reminder: a one-off reminder or event ("remind me to call mom tomorrow").`

func taggerPrompt(intent nlu.Intent) string {
	types := make([]string, 0, len(tagLabels[intent]))
	for _, s := range tagLabels[intent] {
		types = append(types, string(s))
	}
	return fmt.Sprintf(`You label entities in a student's %s message.
Split the message into tokens: numbers (like 44.5), words, and single punctuation marks.
Label every token with O, B-<TYPE> or I-<TYPE>, where TYPE is one of: %s.
Call tag_tokens exactly once with equally long tokens and labels arrays.`,
		strings.ReplaceAll(intent.String(), "_", " "), strings.Join(types, ", "))
}

// decodeClassification reads classify_intent arguments.
func decodeClassification(args map[string]any) (Classification, error) {
	label, ok := args["label"].(string)
	if !ok {
		return Classification{}, malformed("label is %T, want string", args["label"])
	}
	c := Classification{Label: strings.ToLower(strings.TrimSpace(label))}
	switch p := args["probability"].(type) {
	case float64:
		c.LabelProbability = &p
	case nil:
	default:
		return Classification{}, malformed("probability is %T, want number", p)
	}
	return c, nil
}

// decodeTagging reads tag_tokens arguments.
func decodeTagging(args map[string]any) (TaggerOutput, error) {
	tokens, err := stringList(args, "tokens")
	if err != nil {
		return TaggerOutput{}, err
	}
	labels, err := stringList(args, "labels")
	if err != nil {
		return TaggerOutput{}, err
	}
	out := TaggerOutput{Tokens: tokens, Labels: labels}
	if !out.Valid() {
		return TaggerOutput{}, malformed("%d tokens but %d labels", len(tokens), len(labels))
	}
	return out, nil
}

func stringList(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key].([]any)
	if !ok {
		return nil, malformed("%s is %T, want array", key, args[key])
	}
	out := make([]string, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, malformed("%s[%d] is %T, want string", key, i, v)
		}
		out = append(out, s)
	}
	return out, nil
}

// schemaToJSON converts a genai schema to JSON Schema for OpenAI-compatible
// tools. genai types are upper case ("STRING"); JSON Schema wants "string".
func schemaToJSON(s *genai.Schema) map[string]any {
	out := map[string]any{"type": strings.ToLower(string(s.Type))}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = schemaToJSON(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = schemaToJSON(p)
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}
