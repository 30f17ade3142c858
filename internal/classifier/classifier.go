// Package classifier wraps an intent classification service. Classify never
// fails: a missing, failing or confused service degrades to keyword rules,
// and the confidence records which path was taken.
package classifier

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	apperrors "github.com/garyellow/companion-nlu-go/internal/errors"
	"github.com/garyellow/companion-nlu-go/internal/metrics"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
	"github.com/garyellow/companion-nlu-go/internal/sentry"
	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

// Fallback confidences.
const (
	ConfidenceNoModel = 0.5
	ConfidenceNoLabel = 0.3
	ConfidenceError   = 0.2
)

var (
	gradeKeywords    = []string{"%", "got", "scored", "grade", "received", "exam", "test", "quiz", "homework", "assignment"}
	scheduleKeywords = []string{"every", "weekly", "daily", "class", "recurring"}
)

// Adapter classifies utterances with an optional model service.
type Adapter struct {
	model   model.Classifier
	metrics *metrics.Metrics
}

// New creates an Adapter. A nil classifier means "no model available".
func New(m model.Classifier, met *metrics.Metrics) *Adapter {
	return &Adapter{model: m, metrics: met}
}

// Classify returns the intent, a confidence in [0,1] and the path that
// produced them. Only an empty utterance yields IntentUnknown.
func (a *Adapter) Classify(ctx context.Context, text string) (nlu.Intent, float64, nlu.Source) {
	intent, conf, src := a.classify(ctx, text)
	a.metrics.RecordClassification(intent.String(), string(src))
	return intent, conf, src
}

func (a *Adapter) classify(ctx context.Context, text string) (nlu.Intent, float64, nlu.Source) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nlu.IntentUnknown, 0, nlu.SourceEmpty
	}
	if a.model == nil {
		return KeywordIntent(text), ConfidenceNoModel, nlu.SourceKeywordNoModel
	}

	out, err := a.model.Classify(ctx, text)
	if err != nil {
		kind := model.ErrorKind(err)
		a.metrics.RecordModelFailure("classifier", kind)
		if errors.Is(err, apperrors.ErrMalformedOutput) {
			slog.WarnContext(ctx, "classifier returned no usable label, using keywords",
				"model", a.model.Name(), "error", err)
			return KeywordIntent(text), ConfidenceNoLabel, nlu.SourceKeywordNoLabel
		}
		slog.WarnContext(ctx, "classifier failed, using keywords",
			"model", a.model.Name(), "kind", kind, "error", err)
		sentry.CaptureExceptionWithContext(ctx, err, map[string]string{"service": "classifier", "kind": kind})
		return KeywordIntent(text), ConfidenceError, nlu.SourceKeywordError
	}

	intent, ok := nlu.ParseIntent(out.Label)
	conf, hasConf := out.Confidence()
	if !ok || !hasConf {
		a.metrics.RecordModelFailure("classifier", model.KindMalformed)
		slog.WarnContext(ctx, "classifier label unusable, using keywords",
			"model", a.model.Name(), "label", out.Label, "has_probability", hasConf)
		return KeywordIntent(text), ConfidenceNoLabel, nlu.SourceKeywordNoLabel
	}
	return intent, clamp(conf), nlu.SourceModel
}

// KeywordIntent applies the keyword rules: grade words first, then
// scheduling words, else event_reminder.
func KeywordIntent(text string) nlu.Intent {
	lower := strings.ToLower(text)
	switch {
	case stringutil.ContainsAny(lower, gradeKeywords...):
		return nlu.IntentGradeTracking
	case stringutil.ContainsAny(lower, scheduleKeywords...):
		return nlu.IntentScheduledEvent
	default:
		return nlu.IntentEventReminder
	}
}

func clamp(p float64) float64 {
	return min(max(p, 0), 1)
}
