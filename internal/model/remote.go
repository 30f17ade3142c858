package model

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	apperrors "github.com/garyellow/companion-nlu-go/internal/errors"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

// functionCaller sends one request that must be answered with a call to fn
// and returns the call's arguments.
type functionCaller interface {
	callFunction(ctx context.Context, system, text string, fn *genai.FunctionDeclaration) (map[string]any, error)
	provider() string
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{apperrors.ErrMalformedOutput}, args...)...)
}

// remoteClassifier classifies through a function-calling model.
type remoteClassifier struct {
	caller  functionCaller
	timeout time.Duration
	fn      *genai.FunctionDeclaration
}

func newRemoteClassifier(caller functionCaller, timeout time.Duration) *remoteClassifier {
	return &remoteClassifier{caller: caller, timeout: timeout, fn: classifyFunction()}
}

// Classify implements Classifier.
func (c *remoteClassifier) Classify(ctx context.Context, text string) (Classification, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	args, err := c.caller.callFunction(ctx, classifierPrompt, text, c.fn)
	if err != nil {
		return Classification{}, &apperrors.ModelError{Service: "classifier", Provider: c.caller.provider(), Err: err}
	}
	out, err := decodeClassification(args)
	if err != nil {
		return Classification{}, &apperrors.ModelError{Service: "classifier", Provider: c.caller.provider(), Err: err}
	}
	slog.DebugContext(ctx, "classification completed",
		"provider", c.caller.provider(),
		"label", out.Label,
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// Name implements Classifier.
func (c *remoteClassifier) Name() string { return c.caller.provider() }

// remoteTagger tags one intent's entities through a function-calling model.
type remoteTagger struct {
	caller  functionCaller
	intent  nlu.Intent
	timeout time.Duration
	prompt  string
	fn      *genai.FunctionDeclaration
}

func newRemoteTagger(caller functionCaller, intent nlu.Intent, timeout time.Duration) *remoteTagger {
	return &remoteTagger{
		caller:  caller,
		intent:  intent,
		timeout: timeout,
		prompt:  taggerPrompt(intent),
		fn:      tagFunction(),
	}
}

// Tag implements Tagger.
func (t *remoteTagger) Tag(ctx context.Context, text string) (TaggerOutput, error) {
	ctx, cancel := withTimeout(ctx, t.timeout)
	defer cancel()

	service := "tagger:" + t.intent.String()
	args, err := t.caller.callFunction(ctx, t.prompt, text, t.fn)
	if err != nil {
		return TaggerOutput{}, &apperrors.ModelError{Service: service, Provider: t.caller.provider(), Err: err}
	}
	out, err := decodeTagging(args)
	if err != nil {
		return TaggerOutput{}, &apperrors.ModelError{Service: service, Provider: t.caller.provider(), Err: err}
	}
	return out, nil
}

// Name implements Tagger.
func (t *remoteTagger) Name() string { return t.caller.provider() }

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// remoteServices builds a classifier and one tagger per known intent on
// top of a single caller.
func remoteServices(caller functionCaller, timeout time.Duration) Services {
	taggers := make(map[nlu.Intent]Tagger, len(nlu.KnownIntents))
	for _, intent := range nlu.KnownIntents {
		taggers[intent] = newRemoteTagger(caller, intent, timeout)
	}
	return Services{
		Classifier: newRemoteClassifier(caller, timeout),
		Taggers:    taggers,
	}
}
