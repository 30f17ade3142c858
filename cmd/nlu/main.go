// Package main parses utterances from the command line or stdin and prints
// one JSON result per utterance.
//
// Usage:
//
//	nlu [-courses "Organic Chemistry,Calculus II"] [utterance ...]
//	echo "got 90 on the calc quiz" | nlu -courses "Calculus II"
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/garyellow/companion-nlu-go/internal/config"
	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/engine"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/logger"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
	"github.com/garyellow/companion-nlu-go/internal/sliceutil"
)

var coursesFlag = flag.String("courses", "", "Comma-separated course roster")

// output is one printed line.
type output struct {
	Text          string       `json:"text"`
	Intent        nlu.Intent   `json:"intent"`
	Entities      nlu.Entities `json:"entities"`
	Confidence    float64      `json:"confidence"`
	Source        nlu.Source   `json:"source"`
	MissingFields []nlu.Slot   `json:"missing_fields"`
	FollowUp      string       `json:"follow_up,omitempty"`
	Ambiguous     string       `json:"ambiguous,omitempty"`
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries results only.
	log := logger.NewWithWriter(cfg.LogLevel, os.Stderr)
	slog.SetDefault(log.Logger)

	ctx := context.Background()

	services, err := model.New(ctx, model.Config{
		Provider:      cfg.ModelProvider,
		Timeout:       cfg.ModelTimeout,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAIModel,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to build model services")
	}

	lex := lexicon.Default()
	if cfg.LexiconPath != "" {
		b, err := lexicon.LoadFile(cfg.LexiconPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to load lexicon bundle")
		}
		lex = lex.Merge(b)
	}

	events := make(chan course.AmbiguityEvent, 1)
	e := engine.New(engine.Config{Services: services, Lexicon: lex, Events: events})
	e.SetRoster(parseCourses(*coursesFlag), nil)

	var in io.Reader = os.Stdin
	if flag.NArg() > 0 {
		in = strings.NewReader(strings.Join(flag.Args(), "\n"))
	}
	if err := run(ctx, e, events, in, os.Stdout); err != nil {
		log.WithError(err).Fatal("Parse failed")
	}
}

// parseCourses splits a comma-separated roster, dropping blanks and repeats.
func parseCourses(s string) []string {
	var names []string
	for part := range strings.SplitSeq(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return sliceutil.Deduplicate(names, sliceutil.FoldKey)
}

// run processes one utterance per non-blank input line.
func run(ctx context.Context, e *engine.Engine, events <-chan course.AmbiguityEvent, in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		result := e.Process(ctx, text)
		o := output{
			Text:          text,
			Intent:        result.Intent,
			Entities:      result.Entities,
			Confidence:    result.Confidence,
			Source:        result.Source,
			MissingFields: e.MissingFields(result.Intent, result.Entities),
		}
		if o.MissingFields == nil {
			o.MissingFields = []nlu.Slot{}
		}
		if len(o.MissingFields) > 0 {
			o.FollowUp = e.FollowUpQuestion(o.MissingFields[0], result.Intent)
		}
		select {
		case ev := <-events:
			o.Ambiguous = ev.Raw
		default:
		}

		if err := enc.Encode(o); err != nil {
			return err
		}
	}
	return scanner.Err()
}
