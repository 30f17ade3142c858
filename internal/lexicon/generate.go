package lexicon

import (
	"strings"

	"github.com/garyellow/companion-nlu-go/internal/sliceutil"
	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

// acronymSkip lists connective words left out of acronyms.
var acronymSkip = map[string]bool{
	"of": true, "and": true, "to": true, "the": true, "in": true, "for": true, "&": true,
}

// GenerateAliases derives lowercase shorthands for a course name:
//
//	"Calculus II"       -> calculus ii, calculus, calc, calculusii, calculus 2, calculus2
//	"Organic Chemistry" -> organic chemistry, orga, chem, organic, oc, organicchemistry
//
// Duplicates are removed; order is generation order.
func GenerateAliases(name string) []string {
	lower := strings.ToLower(strings.Join(strings.Fields(name), " "))
	if lower == "" {
		return nil
	}
	aliases := []string{lower}

	words := stringutil.Words(lower)
	sig := stringutil.SignificantWords(lower)

	if len(sig) > 0 && len(sig) < len(words) {
		aliases = append(aliases, strings.Join(sig, " "))
	}

	for _, w := range sig {
		if r := []rune(w); len(r) >= 5 {
			aliases = append(aliases, string(r[:4]))
		}
	}

	if len(sig) > 0 && len(sig[0]) >= 3 && !acronymSkip[sig[0]] {
		aliases = append(aliases, sig[0])
	}

	var acronym strings.Builder
	letters := 0
	for _, w := range sig {
		if acronymSkip[w] {
			continue
		}
		acronym.WriteRune([]rune(w)[0])
		letters++
	}
	if letters >= 2 {
		aliases = append(aliases, acronym.String())
	}

	if squashed := strings.ReplaceAll(lower, " ", ""); squashed != lower {
		aliases = append(aliases, squashed)
	}

	aliases = append(aliases, numeralVariants(words)...)

	return sliceutil.Deduplicate(aliases, sliceutil.FoldKey)
}

// numeralVariants swaps roman and arabic level markers: "calculus ii" yields
// "calculus 2" and "calculus2".
func numeralVariants(words []string) []string {
	swapped := make([]string, len(words))
	changed := false
	for i, w := range words {
		swapped[i] = w
		if a, ok := stringutil.RomanToArabic(w); ok && i > 0 {
			swapped[i] = a
			changed = true
		} else if r, ok := stringutil.ArabicToRoman(w); ok && i > 0 {
			swapped[i] = r
			changed = true
		}
	}
	if !changed {
		return nil
	}
	spaced := strings.Join(swapped, " ")
	return []string{spaced, strings.ReplaceAll(spaced, " ", "")}
}
