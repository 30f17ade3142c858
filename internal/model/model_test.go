package model

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	apperrors "github.com/garyellow/companion-nlu-go/internal/errors"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

type fakeCaller struct {
	args map[string]any
	err  error

	gotSystem string
	gotFn     string
	deadline  bool
}

func (f *fakeCaller) callFunction(ctx context.Context, system, _ string, fn *genai.FunctionDeclaration) (map[string]any, error) {
	f.gotSystem = system
	f.gotFn = fn.Name
	_, f.deadline = ctx.Deadline()
	return f.args, f.err
}

func (f *fakeCaller) provider() string { return "fake" }

func TestClassification_Confidence(t *testing.T) {
	t.Parallel()

	p := 0.8
	c := Classification{Label: "grade_tracking", LabelProbability: &p, ClassProbability: map[string]float64{"grade_tracking": 0.6}}
	got, ok := c.Confidence()
	assert.True(t, ok)
	assert.InDelta(t, 0.8, got, 1e-9)

	c.LabelProbability = nil
	got, ok = c.Confidence()
	assert.True(t, ok)
	assert.InDelta(t, 0.6, got, 1e-9)

	_, ok = Classification{Label: "event_reminder"}.Confidence()
	assert.False(t, ok)
}

func TestTaggerOutput_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, TaggerOutput{Tokens: []string{"a"}, Labels: []string{"O"}}.Valid())
	assert.False(t, TaggerOutput{Tokens: []string{"a", "b"}, Labels: []string{"O"}}.Valid())
	assert.False(t, TaggerOutput{}.Valid())
}

func TestRemoteClassifier(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{args: map[string]any{"label": " Grade_Tracking ", "probability": 0.9}}
	c := newRemoteClassifier(caller, time.Second)

	got, err := c.Classify(context.Background(), "got 90% on the quiz")
	require.NoError(t, err)
	assert.Equal(t, "grade_tracking", got.Label)
	require.NotNil(t, got.LabelProbability)
	assert.InDelta(t, 0.9, *got.LabelProbability, 1e-9)
	assert.Equal(t, FuncClassifyIntent, caller.gotFn)
	assert.Equal(t, classifierPrompt, caller.gotSystem)
	assert.True(t, caller.deadline)
	assert.Equal(t, "fake", c.Name())
}

func TestRemoteClassifier_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		caller    *fakeCaller
		malformed bool
	}{
		{"service failure", &fakeCaller{err: errors.New("503 unavailable")}, false},
		{"label not a string", &fakeCaller{args: map[string]any{"label": 3.0}}, true},
		{"probability not a number", &fakeCaller{args: map[string]any{"label": "x", "probability": "high"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := newRemoteClassifier(tt.caller, 0).Classify(context.Background(), "hi")
			require.Error(t, err)

			var modelErr *apperrors.ModelError
			require.ErrorAs(t, err, &modelErr)
			assert.Equal(t, "classifier", modelErr.Service)
			assert.Equal(t, tt.malformed, errors.Is(err, apperrors.ErrMalformedOutput))
		})
	}
}

func TestRemoteTagger(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{args: map[string]any{
		"tokens": []any{"bio", "test"},
		"labels": []any{"B-COURSE_NAME", "B-ASSIGNMENT"},
	}}
	tg := newRemoteTagger(caller, nlu.IntentGradeTracking, time.Second)

	out, err := tg.Tag(context.Background(), "bio test")
	require.NoError(t, err)
	assert.Equal(t, []string{"bio", "test"}, out.Tokens)
	assert.Equal(t, FuncTagTokens, caller.gotFn)
	assert.Contains(t, caller.gotSystem, "SCORE_VALUE")
}

func TestRemoteTagger_LengthMismatch(t *testing.T) {
	t.Parallel()

	caller := &fakeCaller{args: map[string]any{
		"tokens": []any{"bio", "test"},
		"labels": []any{"O"},
	}}
	_, err := newRemoteTagger(caller, nlu.IntentEventReminder, 0).Tag(context.Background(), "bio test")
	assert.ErrorIs(t, err, apperrors.ErrMalformedOutput)
}

func TestFunctionArgs(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking"},
				{FunctionCall: &genai.FunctionCall{Name: FuncClassifyIntent, Args: map[string]any{"label": "event_reminder"}}},
			}},
		}},
	}
	args, err := functionArgs(resp, FuncClassifyIntent)
	require.NoError(t, err)
	assert.Equal(t, "event_reminder", args["label"])

	_, err = functionArgs(resp, FuncTagTokens)
	assert.ErrorIs(t, err, apperrors.ErrMalformedOutput)

	_, err = functionArgs(&genai.GenerateContentResponse{}, FuncTagTokens)
	assert.ErrorIs(t, err, apperrors.ErrMalformedOutput)
}

func TestSchemaToJSON(t *testing.T) {
	t.Parallel()

	got := schemaToJSON(tagFunction().Parameters)
	assert.Equal(t, "object", got["type"])
	props := got["properties"].(map[string]any)
	tokens := props["tokens"].(map[string]any)
	assert.Equal(t, "array", tokens["type"])
	assert.Equal(t, map[string]any{"type": "string"}, tokens["items"])
	assert.Equal(t, []string{"tokens", "labels"}, got["required"])
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{"canceled", context.Canceled, KindCanceled},
		{"malformed", malformed("bad"), KindMalformed},
		{"gemini 429", genai.APIError{Code: 429, Message: "slow down"}, KindRateLimit},
		{"gemini 503", fmt.Errorf("generate: %w", genai.APIError{Code: 503}), KindUnavailable},
		{"quota text", errors.New("Quota exceeded for project"), KindQuota},
		{"auth text", errors.New("invalid api key"), KindAuth},
		{"network text", errors.New("dial tcp: connection refused"), KindNetwork},
		{"other", errors.New("something odd"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

func TestNew_Providers(t *testing.T) {
	t.Parallel()

	none, err := New(context.Background(), Config{Provider: ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, none.Classifier)
	assert.Nil(t, none.Tagger(nlu.IntentGradeTracking))

	local, err := New(context.Background(), Config{Provider: ProviderLocal})
	require.NoError(t, err)
	assert.NotNil(t, local.Classifier)
	for _, intent := range nlu.KnownIntents {
		assert.NotNil(t, local.Tagger(intent), intent)
	}

	_, err = New(context.Background(), Config{Provider: ProviderOpenAI})
	assert.Error(t, err, "api key required")

	_, err = New(context.Background(), Config{Provider: "bogus"})
	assert.Error(t, err)
}
