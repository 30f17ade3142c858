// Package engine is the caller-facing command understanding API. An Engine
// owns one user's lexicon and course roster as an immutable snapshot that is
// swapped wholesale when the roster changes, so concurrent Process calls
// never observe a partial update.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/garyellow/companion-nlu-go/internal/classifier"
	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/dialogue"
	"github.com/garyellow/companion-nlu-go/internal/extract"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/metrics"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
	"github.com/garyellow/companion-nlu-go/internal/normalize"
	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

// Config configures an Engine.
type Config struct {
	// Services are the model services; any of them may be nil.
	Services model.Services
	// Lexicon is the base lexicon before roster aliases. Nil means the
	// built-in defaults.
	Lexicon *lexicon.Lexicon
	// Owner is copied into ambiguity events.
	Owner string
	// Events receives ambiguity events. Sends never block; a full channel
	// drops the event.
	Events  chan<- course.AmbiguityEvent
	Metrics *metrics.Metrics
}

// snapshot is everything derived from one roster. It is never mutated after
// it is published.
type snapshot struct {
	lex        *lexicon.Lexicon
	roster     course.Roster
	extractors *extract.Set
	normalizer *normalize.Normalizer
	router     *dialogue.Router
}

// Engine processes utterances for one user.
type Engine struct {
	base       *lexicon.Lexicon
	services   model.Services
	classifier *classifier.Adapter
	resolver   course.Options
	metrics    *metrics.Metrics

	snap  atomic.Pointer[snapshot]
	group singleflight.Group
}

// New creates an Engine with an empty roster.
func New(cfg Config) *Engine {
	base := cfg.Lexicon
	if base == nil {
		base = lexicon.Default()
	}
	e := &Engine{
		base:       base,
		services:   cfg.Services,
		classifier: classifier.New(cfg.Services.Classifier, cfg.Metrics),
		resolver: course.Options{
			Owner:   cfg.Owner,
			Events:  cfg.Events,
			Metrics: cfg.Metrics,
		},
		metrics: cfg.Metrics,
	}
	e.snap.Store(e.build(nil, nil))
	return e
}

func (e *Engine) build(names []string, aliases map[string]string) *snapshot {
	roster := course.NewRoster(names)
	lex := e.base.WithRoster(roster.Names(), aliases)
	resolver := course.NewResolver(roster, lex, e.resolver)
	return &snapshot{
		lex:        lex,
		roster:     roster,
		extractors: extract.NewSet(e.services, lex, resolver, e.metrics),
		normalizer: normalize.New(lex, resolver),
		router:     dialogue.NewRouter(lex, roster),
	}
}

// SetRoster replaces the course roster and the user's course aliases. The
// lexicon is regenerated from the new roster and published in one step.
func (e *Engine) SetRoster(names []string, aliases map[string]string) {
	e.snap.Store(e.build(names, aliases))
	e.metrics.RecordLexiconSwap()
}

// Roster returns the current canonical course names.
func (e *Engine) Roster() []string {
	return e.snap.Load().roster.Names()
}

// Lexicon returns the current lexicon, roster aliases included.
func (e *Engine) Lexicon() *lexicon.Lexicon {
	return e.snap.Load().lex
}

// Process classifies an utterance and extracts its normalized entities. It
// never fails: model problems degrade to keyword and regex fallbacks.
func (e *Engine) Process(ctx context.Context, utterance string) nlu.Result {
	start := time.Now()
	snap := e.snap.Load()
	text := stringutil.NormalizeUtterance(utterance)

	var result nlu.Result
	if dialogue.IsSingleWord(text) {
		intent, entities := snap.router.Route(text)
		e.metrics.RecordClassification(intent.String(), string(nlu.SourceSingleWord))
		result = nlu.Result{
			Intent:     intent,
			Entities:   snap.normalizer.Normalize(intent, entities),
			Confidence: 1.0,
			Source:     nlu.SourceSingleWord,
		}
	} else {
		intent, confidence, source := e.classifier.Classify(ctx, text)
		entities := nlu.Entities{}
		if source != nlu.SourceEmpty {
			entities = snap.normalizer.Normalize(intent, snap.extractors.Extract(ctx, intent, text))
		}
		result = nlu.Result{
			Intent:     intent,
			Entities:   entities,
			Confidence: confidence,
			Source:     source,
		}
	}

	elapsed := time.Since(start)
	e.metrics.RecordProcess(result.Intent.String(), elapsed.Seconds())
	slog.DebugContext(ctx, "Processed utterance",
		"intent", result.Intent,
		"source", result.Source,
		"confidence", result.Confidence,
		"entities", len(result.Entities),
		"duration_ms", elapsed.Milliseconds())
	return result
}

// RequiredFields returns the fields intent needs.
func (e *Engine) RequiredFields(intent nlu.Intent) []nlu.Slot {
	return dialogue.RequiredFields(intent)
}

// MissingFields returns the required fields entities do not satisfy.
func (e *Engine) MissingFields(intent nlu.Intent, entities nlu.Entities) []nlu.Slot {
	return dialogue.MissingFields(intent, entities)
}

// FollowUpQuestion returns the question to ask for a missing field.
func (e *Engine) FollowUpQuestion(field nlu.Slot, intent nlu.Intent) string {
	return dialogue.FollowUpQuestion(intent, field)
}
