package extract

import (
	"strings"

	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

// DecodeBIO turns a BIO-labelled token sequence into entities. Tokens of one
// span are joined with spaces. An I- label that does not continue the open
// span starts a new one; O or a type change closes it. When a type occurs
// twice, the later span wins. Invalid output decodes to an empty bag.
func DecodeBIO(out model.TaggerOutput) nlu.Entities {
	entities := nlu.Entities{}
	if !out.Valid() {
		return entities
	}

	var (
		current nlu.Slot
		words   []string
	)
	flush := func() {
		if current != "" && len(words) > 0 {
			entities.Set(current, strings.Join(words, " "))
		}
		current, words = "", nil
	}

	for i, token := range out.Tokens {
		prefix, typ, ok := strings.Cut(strings.TrimSpace(out.Labels[i]), "-")
		if !ok || typ == "" {
			flush()
			continue
		}
		slot := nlu.Slot(strings.ToUpper(typ))
		switch strings.ToUpper(prefix) {
		case "B":
			flush()
			current, words = slot, []string{token}
		case "I":
			if slot == current {
				words = append(words, token)
				continue
			}
			flush()
			current, words = slot, []string{token}
		default:
			flush()
		}
	}
	flush()
	return entities
}
