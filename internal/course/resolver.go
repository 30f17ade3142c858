package course

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/metrics"
	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

// Tier names the resolution step that produced a course.
type Tier string

const (
	TierSubstring    Tier = "substring"
	TierAliasExact   Tier = "alias_exact"
	TierAliasFuzzy   Tier = "alias_fuzzy"
	TierExact        Tier = "exact"
	TierFuzzy        Tier = "fuzzy"
	TierWord         Tier = "word"
	TierCodeRoster   Tier = "code_roster"
	TierCodeVerbatim Tier = "code_verbatim"
	TierNone         Tier = "none"
)

// AmbiguityEvent reports a course reference that matched nothing on a
// non-empty roster. Consumers resolve it out of band; a chosen course comes
// back as a new utterance.
type AmbiguityEvent struct {
	Owner      string    `json:"owner,omitempty"`
	Raw        string    `json:"raw"`
	Normalized string    `json:"normalized"`
	Roster     []string  `json:"roster"`
	At         time.Time `json:"at"`
}

var courseCodePattern = regexp.MustCompile(`(?i)\b[a-z]{2,4}\d{3,4}\b`)

// stopwords are never resolved on their own in the per-word tier.
var stopwords = map[string]bool{
	"got": true, "get": true, "scored": true, "score": true, "received": true, "receive": true,
	"on": true, "the": true, "my": true, "a": true, "an": true, "in": true, "for": true,
	"of": true, "at": true, "to": true, "is": true, "was": true, "and": true, "or": true,
	"worth": true, "percent": true, "i": true, "me": true, "remind": true, "have": true,
	"grade": true, "out": true, "this": true, "next": true, "with": true, "from": true,
}

// Resolver maps course references to roster entries.
type Resolver struct {
	roster  Roster
	lex     *lexicon.Lexicon
	owner   string
	events  chan<- AmbiguityEvent
	metrics *metrics.Metrics
}

// Options configures a Resolver. Events may be nil, in which case
// unresolved references are only reported as "no match".
type Options struct {
	Owner   string
	Events  chan<- AmbiguityEvent
	Metrics *metrics.Metrics
}

// NewResolver creates a resolver over one roster/lexicon snapshot.
func NewResolver(roster Roster, lex *lexicon.Lexicon, opts Options) *Resolver {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Resolver{
		roster:  roster,
		lex:     lex,
		owner:   opts.Owner,
		events:  opts.Events,
		metrics: opts.Metrics,
	}
}

// Roster returns the roster the resolver matches against.
func (r *Resolver) Roster() Roster { return r.roster }

// Resolve maps a candidate to a roster entry: alias then exact, alias then
// fuzzy, exact, fuzzy. It never emits ambiguity events.
func (r *Resolver) Resolve(candidate string) (string, bool) {
	name, tier := r.resolve(candidate)
	r.metrics.RecordCourseResolution(string(tier))
	return name, tier != TierNone
}

func (r *Resolver) resolve(candidate string) (string, Tier) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || r.roster.Empty() {
		return "", TierNone
	}
	if alias, ok := r.lex.CourseAlias(candidate); ok {
		if name, ok := r.roster.Exact(alias); ok {
			return name, TierAliasExact
		}
		if name, _, ok := r.roster.Fuzzy(alias); ok {
			return name, TierAliasFuzzy
		}
	}
	if name, ok := r.roster.Exact(candidate); ok {
		return name, TierExact
	}
	if name, _, ok := r.roster.Fuzzy(candidate); ok {
		return name, TierFuzzy
	}
	return "", TierNone
}

// ExtractCourse finds a course reference in free text. Tiers, first success
// wins: a roster name occurring in the text, the whole text resolved, each
// content word resolved, a course-code-shaped token (resolved, or returned
// verbatim). When all fail on a non-empty roster an AmbiguityEvent is sent
// without blocking.
func (r *Resolver) ExtractCourse(ctx context.Context, text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if name, ok := r.roster.Within(text); ok {
		r.metrics.RecordCourseResolution(string(TierSubstring))
		return name, true
	}
	if name, tier := r.resolve(text); tier != TierNone {
		r.metrics.RecordCourseResolution(string(tier))
		return name, true
	}
	for _, w := range stringutil.Words(text) {
		if len(w) < 2 || stopwords[w] || stringutil.IsDecimal(strings.TrimSuffix(w, "%")) {
			continue
		}
		if name, tier := r.resolve(w); tier != TierNone {
			r.metrics.RecordCourseResolution(string(TierWord))
			return name, true
		}
	}
	if code := courseCodePattern.FindString(text); code != "" {
		if name, tier := r.resolve(code); tier != TierNone {
			r.metrics.RecordCourseResolution(string(TierCodeRoster))
			return name, true
		}
		r.metrics.RecordCourseResolution(string(TierCodeVerbatim))
		return code, true
	}

	r.metrics.RecordCourseResolution(string(TierNone))
	r.notifyAmbiguous(ctx, text)
	return "", false
}

func (r *Resolver) notifyAmbiguous(ctx context.Context, text string) {
	if r.events == nil || r.roster.Empty() {
		return
	}
	ev := AmbiguityEvent{
		Owner:      r.owner,
		Raw:        text,
		Normalized: strings.ToLower(stringutil.NormalizeUtterance(text)),
		Roster:     r.roster.Names(),
		At:         time.Now(),
	}
	select {
	case r.events <- ev:
		r.metrics.RecordAmbiguityEvent("sent")
	default:
		r.metrics.RecordAmbiguityEvent("dropped")
		slog.WarnContext(ctx, "ambiguity event dropped, sink is full",
			"owner", r.owner,
			"roster_size", r.roster.Len())
	}
}
