package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/iwilltry42/bm25-go/bm25"

	"github.com/garyellow/companion-nlu-go/internal/nlu"
	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

// Exemplar is one labelled utterance, in the {"text", "label"} shape of a
// training data file.
type Exemplar struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// ExemplarClassifier scores an utterance against labelled exemplars with
// BM25 and reports per-label probabilities from the summed positive scores.
type ExemplarClassifier struct {
	index  *bm25.BM25Okapi
	labels []string // parallel to the indexed corpus
}

// NewExemplarClassifier indexes the exemplars. Exemplars with an unknown
// label or blank text are skipped.
func NewExemplarClassifier(exemplars []Exemplar) (*ExemplarClassifier, error) {
	corpus := make([]string, 0, len(exemplars))
	labels := make([]string, 0, len(exemplars))
	for _, ex := range exemplars {
		label := strings.ToLower(strings.TrimSpace(ex.Label))
		if strings.TrimSpace(ex.Text) == "" || !ValidLabel(label) {
			continue
		}
		corpus = append(corpus, ex.Text)
		labels = append(labels, label)
	}
	if len(corpus) == 0 {
		return nil, fmt.Errorf("exemplar classifier: no usable exemplars out of %d", len(exemplars))
	}

	index, err := bm25.NewBM25Okapi(corpus, tokenize, 1.5, 0.75, nil)
	if err != nil {
		return nil, fmt.Errorf("exemplar classifier: build index: %w", err)
	}
	return &ExemplarClassifier{index: index, labels: labels}, nil
}

// LoadExemplars reads a JSON array of exemplars.
func LoadExemplars(path string) ([]Exemplar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exemplars: %w", err)
	}
	var out []Exemplar
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse exemplars %s: %w", path, err)
	}
	return out, nil
}

func tokenize(text string) []string {
	return stringutil.Words(text)
}

// Classify implements Classifier.
func (c *ExemplarClassifier) Classify(_ context.Context, text string) (Classification, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Classification{}, malformed("no tokens")
	}
	scores, err := c.index.GetScores(tokens)
	if err != nil {
		return Classification{}, fmt.Errorf("bm25 scoring failed: %w", err)
	}

	sums := make(map[string]float64)
	total := 0.0
	for i, s := range scores {
		if s > 0 && i < len(c.labels) {
			sums[c.labels[i]] += s
			total += s
		}
	}
	if total == 0 {
		return Classification{}, malformed("no exemplar matched")
	}

	probs := make(map[string]float64, len(sums))
	for label, s := range sums {
		probs[label] = s / total
	}

	// Deterministic argmax: ties go to the enumeration order.
	ranked := make([]string, 0, len(nlu.KnownIntents))
	for _, in := range nlu.KnownIntents {
		ranked = append(ranked, in.String())
	}
	sort.SliceStable(ranked, func(i, j int) bool { return probs[ranked[i]] > probs[ranked[j]] })

	return Classification{Label: ranked[0], ClassProbability: probs}, nil
}

// Name implements Classifier.
func (c *ExemplarClassifier) Name() string { return "exemplar" }

// DefaultExemplars is a small built-in training set.
func DefaultExemplars() []Exemplar {
	grade := []string{
		"got 85% on the calc midterm",
		"I scored 92 percent on my chemistry quiz",
		"received a B+ on the history essay",
		"got 44/50 on the physics lab report",
		"my biology final was 78%",
		"scored 18 out of 20 on the stats homework worth 10%",
		"orgo exam grade 88 weighted 25 percent",
		"got an A on the econ project",
		"psych test 91%",
		"earned 95 on the pset",
	}
	reminder := []string{
		"remind me to call mom tomorrow",
		"remind me to submit the essay tonight at 11pm",
		"dentist appointment on friday at 3pm",
		"pick up groceries after work",
		"study for the calc exam in 2 hours",
		"pay rent on march 1",
		"meet with my advisor tomorrow at noon",
		"remind me to email the professor 30 minutes before",
		"return library books today",
		"go to the gym tonight",
	}
	scheduled := []string{
		"chem lab every tuesday at 2pm",
		"calculus lecture on monday wednesday friday at 9am",
		"soccer practice every thursday at 5pm",
		"weekly team sync on mondays at 10am",
		"I have biology class every day at 8am",
		"office hours every wednesday at 3pm",
		"recurring gym session on saturdays",
		"daily workout at 6am",
		"yoga class every sunday morning",
		"tutoring shift weekly on fridays at 4pm",
	}

	var out []Exemplar
	for _, t := range grade {
		out = append(out, Exemplar{Text: t, Label: nlu.IntentGradeTracking.String()})
	}
	for _, t := range reminder {
		out = append(out, Exemplar{Text: t, Label: nlu.IntentEventReminder.String()})
	}
	for _, t := range scheduled {
		out = append(out, Exemplar{Text: t, Label: nlu.IntentScheduledEvent.String()})
	}
	return out
}
