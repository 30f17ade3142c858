package course

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

// MatchThreshold is the score a fuzzy match must exceed.
const MatchThreshold = 50.0

// maxWordDistance is the edit distance under which two words count as the
// same word.
const maxWordDistance = 2

// Similarity scores how well input refers to course, from 0 to 100.
//
// Rules:
//   - exact (case-insensitive) equality: 100
//   - course contains input: 90 * len(input)/len(course)
//   - input contains course: 85 * len(course)/len(input)
//   - word level: 80 * matched course words / max(input words, course words)
//   - character-set overlap: 60 * |shared runes| / max(|runes|)
//
// The best applicable rule wins. Level markers such as "II" or "101" are not
// counted as course words, so "calc" names "Calculus II" as well as it names
// "Calculus".
func Similarity(input, course string) float64 {
	in := strings.ToLower(strings.TrimSpace(input))
	c := strings.ToLower(strings.TrimSpace(course))
	if in == "" || c == "" {
		return 0
	}
	if in == c {
		return 100
	}

	best := 0.0
	if strings.Contains(c, in) {
		best = max(best, 90*float64(len(in))/float64(len(c)))
	}
	if strings.Contains(in, c) {
		best = max(best, 85*float64(len(c))/float64(len(in)))
	}
	best = max(best, wordScore(in, c))
	best = max(best, charsetScore(in, c))
	return best
}

func wordScore(input, course string) float64 {
	inWords := longWords(stringutil.Words(input))
	courseWords := longWords(stringutil.SignificantWords(course))
	if len(inWords) == 0 || len(courseWords) == 0 {
		return 0
	}

	matched := 0
	for _, cw := range courseWords {
		for _, iw := range inWords {
			if wordsMatch(iw, cw) {
				matched++
				break
			}
		}
	}
	return 80 * float64(matched) / float64(max(len(inWords), len(courseWords)))
}

func wordsMatch(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a) ||
		levenshtein.ComputeDistance(a, b) <= maxWordDistance
}

func longWords(words []string) []string {
	out := words[:0:0]
	for _, w := range words {
		if len(w) >= 2 {
			out = append(out, w)
		}
	}
	return out
}

func charsetScore(input, course string) float64 {
	a, b := charset(input), charset(course)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for r := range a {
		if _, ok := b[r]; ok {
			shared++
		}
	}
	return 60 * float64(shared) / float64(max(len(a), len(b)))
}

func charset(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			set[r] = struct{}{}
		}
	}
	return set
}
