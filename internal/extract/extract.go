// Package extract fills the entity bag for a classified utterance. Each
// intent runs its sequence tagger and a deterministic fallback side by side
// and merges the two; an unknown intent gets the union of every fallback.
package extract

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/metrics"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

// Tagger output statuses reported to metrics.
const (
	statusOK        = "ok"
	statusEmpty     = "empty"
	statusMalformed = "malformed"
	statusError     = "error"
	statusAbsent    = "absent"
)

// overrideFunc reports whether a fallback value replaces the tagger's.
type overrideFunc func(fallback string) bool

// overrides lists the slots where the fallback beats a non-blank tagger
// value. The tagger is weaker on numbers than the regexes.
var overrides = map[nlu.Slot]overrideFunc{
	nlu.SlotScoreValue: stringutil.IsInt,
	nlu.SlotWeightPercent: func(v string) bool {
		return strings.Contains(v, "%")
	},
}

type fallbackFunc func(ctx context.Context, text string) nlu.Entities

// Extractor runs one intent's tagger and fallback and merges their output.
type Extractor struct {
	intent   nlu.Intent
	tagger   model.Tagger
	fallback fallbackFunc
	metrics  *metrics.Metrics
}

// Extract returns the merged entities. It never fails: a tagger error or
// malformed output leaves only the fallback's entities.
func (e *Extractor) Extract(ctx context.Context, text string) nlu.Entities {
	var tagged, fallback nlu.Entities

	var g errgroup.Group
	g.Go(func() error {
		tagged = e.tag(ctx, text)
		return nil
	})
	g.Go(func() error {
		fallback = e.fallback(ctx, text)
		return nil
	})
	_ = g.Wait()

	return e.merge(tagged, fallback)
}

func (e *Extractor) tag(ctx context.Context, text string) nlu.Entities {
	if e.tagger == nil {
		e.metrics.RecordTaggerOutput(e.intent.String(), statusAbsent)
		return nlu.Entities{}
	}

	out, err := e.tagger.Tag(ctx, text)
	if err != nil {
		kind := model.ErrorKind(err)
		status := statusError
		if kind == model.KindMalformed {
			status = statusMalformed
		}
		e.metrics.RecordTaggerOutput(e.intent.String(), status)
		e.metrics.RecordModelFailure("tagger:"+e.intent.String(), kind)
		slog.WarnContext(ctx, "tagger failed, using fallback only",
			"intent", e.intent, "tagger", e.tagger.Name(), "kind", kind, "error", err)
		return nlu.Entities{}
	}
	if !out.Valid() {
		e.metrics.RecordTaggerOutput(e.intent.String(), statusMalformed)
		slog.WarnContext(ctx, "tagger output misaligned, using fallback only",
			"intent", e.intent, "tokens", len(out.Tokens), "labels", len(out.Labels))
		return nlu.Entities{}
	}

	entities := DecodeBIO(out)
	if len(entities) == 0 {
		e.metrics.RecordTaggerOutput(e.intent.String(), statusEmpty)
	} else {
		e.metrics.RecordTaggerOutput(e.intent.String(), statusOK)
	}
	return entities
}

// merge fills slots the tagger left blank from the fallback and applies the
// per-slot overrides.
func (e *Extractor) merge(tagged, fallback nlu.Entities) nlu.Entities {
	out := nlu.Entities{}
	for k, v := range tagged {
		out.Set(k, v)
	}
	for _, slot := range fallback.Keys() {
		v := fallback.Get(slot)
		if v == "" {
			continue
		}
		if !out.Has(slot) {
			out.Set(slot, v)
			continue
		}
		if override, ok := overrides[slot]; ok && override(v) && out.Get(slot) != v {
			out.Set(slot, v)
			e.metrics.RecordMergeOverride(string(slot))
		}
	}
	return out
}

// Set holds one Extractor per known intent plus the unknown-intent union.
type Set struct {
	extractors map[nlu.Intent]*Extractor
	union      *Extractor
}

// NewSet builds extractors over the given services, lexicon and course
// resolver. resolver may be nil, in which case no course is extracted.
func NewSet(services model.Services, lex *lexicon.Lexicon, resolver *course.Resolver, m *metrics.Metrics) *Set {
	fb := fallbacks{lex: lex, resolver: resolver}
	funcs := map[nlu.Intent]fallbackFunc{
		nlu.IntentGradeTracking:  fb.grade,
		nlu.IntentEventReminder:  fb.reminder,
		nlu.IntentScheduledEvent: fb.scheduled,
	}

	s := &Set{
		extractors: make(map[nlu.Intent]*Extractor, len(funcs)),
		union:      &Extractor{intent: nlu.IntentUnknown, fallback: fb.all, metrics: m},
	}
	for intent, fn := range funcs {
		s.extractors[intent] = &Extractor{
			intent:   intent,
			tagger:   services.Tagger(intent),
			fallback: fn,
			metrics:  m,
		}
	}
	return s
}

// Extract runs the extractor for intent. Intents without one get the union
// of every fallback.
func (s *Set) Extract(ctx context.Context, intent nlu.Intent, text string) nlu.Entities {
	if e, ok := s.extractors[intent]; ok {
		return e.Extract(ctx, text)
	}
	return s.union.Extract(ctx, text)
}
