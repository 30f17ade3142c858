// Package main checks lexicon consistency: the built-in defaults, an
// optional bundle merged on top, and a set of canonical pipeline samples.
//
// Usage:
//
//	verify [bundle.yaml | bundle.yaml.zst]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/garyellow/companion-nlu-go/internal/engine"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

// Verification results
type verifyResult struct {
	name    string
	passed  bool
	message string
}

func main() {
	fmt.Println("🔍 Companion NLU - Lexicon Consistency Verification")
	fmt.Println("===================================================")

	lex := lexicon.Default()
	results := []verifyResult{}

	if len(os.Args) > 1 {
		path := os.Args[1]
		b, err := lexicon.LoadFile(path)
		results = append(results, verifyResult{
			name:    "Bundle: " + path,
			passed:  err == nil,
			message: bundleMessage(b, err),
		})
		if err == nil {
			lex = lex.Merge(b)
		}
	}

	results = append(results, verifyLexicon(lex)...)
	results = append(results, verifySamples(lex)...)

	fmt.Println("\n📊 Verification Results:")
	fmt.Println("========================")

	passedCount := 0
	failedCount := 0

	for _, result := range results {
		status := "❌"
		if result.passed {
			status = "✅"
			passedCount++
		} else {
			failedCount++
		}
		fmt.Printf("%s %s: %s\n", status, result.name, result.message)
	}

	fmt.Printf("\n📈 Summary: %d passed, %d failed\n", passedCount, failedCount)

	if failedCount > 0 {
		os.Exit(1)
	}
}

func bundleMessage(b lexicon.Bundle, err error) string {
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("%d entries", b.Size())
}

// verifyLexicon turns every consistency problem into a failed result.
func verifyLexicon(lex *lexicon.Lexicon) []verifyResult {
	problems := lex.Verify()
	if len(problems) == 0 {
		return []verifyResult{{
			name:    "Lexicon Consistency",
			passed:  true,
			message: "weekdays reachable, values non-blank, canonical forms idempotent",
		}}
	}

	results := make([]verifyResult, 0, len(problems))
	for _, p := range problems {
		results = append(results, verifyResult{name: "Lexicon Consistency", message: p})
	}
	return results
}

// verifySamples runs the rule-based pipeline over utterances whose output
// the lexicon must keep stable.
func verifySamples(lex *lexicon.Lexicon) []verifyResult {
	e := engine.New(engine.Config{Services: model.RuleServices(nil), Lexicon: lex})
	e.SetRoster([]string{"Organic Chemistry", "Calculus II"}, nil)

	samples := []struct {
		text  string
		slot  nlu.Slot
		value string
	}{
		{"got 44/50 on the orgo midterm worth 20%", nlu.SlotScoreValue, "88.00"},
		{"got 44/50 on the orgo midterm worth 20%", nlu.SlotCourseName, "Organic Chemistry"},
		{"remind me to call mom tmrw at noon", nlu.SlotDateRel, "tomorrow"},
		{"remind me to call mom tomorrow at noon", nlu.SlotTime, "12:00 pm"},
		{"soccer practice every tues at 2pm", nlu.SlotDayOfWeek, "tuesday"},
	}

	results := make([]verifyResult, 0, len(samples))
	for _, s := range samples {
		got := e.Process(context.Background(), s.text).Entities.Get(s.slot)
		results = append(results, verifyResult{
			name:    fmt.Sprintf("Sample %q %s", s.text, s.slot),
			passed:  got == s.value,
			message: fmt.Sprintf("Expected %q, got %q", s.value, got),
		})
	}
	return results
}
