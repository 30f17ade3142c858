package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

type stubTagger struct {
	out model.TaggerOutput
	err error
}

func (s stubTagger) Tag(context.Context, string) (model.TaggerOutput, error) {
	return s.out, s.err
}

func (s stubTagger) Name() string { return "stub" }

func TestDecodeBIO(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		out  model.TaggerOutput
		want nlu.Entities
	}{
		{
			name: "contiguous span",
			out: model.TaggerOutput{
				Tokens: []string{"soccer", "practice", "every", "tuesday"},
				Labels: []string{"B-EVENT", "I-EVENT", "O", "B-DAY_OF_WEEK"},
			},
			want: nlu.Entities{nlu.SlotEvent: "soccer practice", nlu.SlotDayOfWeek: "tuesday"},
		},
		{
			name: "inside without begin starts a span",
			out: model.TaggerOutput{
				Tokens: []string{"at", "5", "pm"},
				Labels: []string{"O", "I-TIME", "I-TIME"},
			},
			want: nlu.Entities{nlu.SlotTime: "5 pm"},
		},
		{
			name: "type change closes span",
			out: model.TaggerOutput{
				Tokens: []string{"midterm", "20", "%"},
				Labels: []string{"B-ASSIGNMENT", "I-WEIGHT_PERCENT", "I-WEIGHT_PERCENT"},
			},
			want: nlu.Entities{nlu.SlotAssignment: "midterm", nlu.SlotWeightPercent: "20 %"},
		},
		{
			name: "later span wins",
			out: model.TaggerOutput{
				Tokens: []string{"quiz", "and", "exam"},
				Labels: []string{"B-ASSIGNMENT", "O", "B-ASSIGNMENT"},
			},
			want: nlu.Entities{nlu.SlotAssignment: "exam"},
		},
		{
			name: "length mismatch",
			out: model.TaggerOutput{
				Tokens: []string{"quiz", "tomorrow"},
				Labels: []string{"B-ASSIGNMENT"},
			},
			want: nlu.Entities{},
		},
		{
			name: "empty",
			out:  model.TaggerOutput{},
			want: nlu.Entities{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DecodeBIO(tt.out))
		})
	}
}

func TestExtractScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{"got 92% on the quiz", "92"},
		{"scored 87.5% on the final", "87.5"},
		{"midterm worth 20% and I got 85%", "85"},
		{"the project is worth 30%", ""},
		{"got 44.5 percent on the midterm worth 20%", "44.5"},
		{"44/50", "88.00"},
		{"got 18/20 on the quiz worth 20%", "90.00"},
		{"3/0 on the lab", ""},
		{"no numbers here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractScore(tt.text))
		})
	}
}

func TestExtractWeight(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "20%", ExtractWeight("got 92 on the midterm worth 20%"))
	assert.Equal(t, "15", ExtractWeight("quiz weight 15 points"))
	assert.Equal(t, "25%", ExtractWeight("project weight 25%"))
	assert.Empty(t, ExtractWeight("got 92%"))
}

func TestExtractAssignment(t *testing.T) {
	t.Parallel()

	lex := lexicon.Default()
	assert.Equal(t, "midterm", ExtractAssignment(lex, "got 90 on the midterm exam"))
	assert.Equal(t, "homework", ExtractAssignment(lex, "hw 3 was easy"))
	assert.Equal(t, "problem set", ExtractAssignment(lex, "finished the problem set"))
	assert.Equal(t, "quiz", ExtractAssignment(lex, "quiz, then exam"))
	assert.Empty(t, ExtractAssignment(lex, "call mom"))
}

func TestExtractEvent(t *testing.T) {
	t.Parallel()

	lex := lexicon.Default()
	tests := []struct {
		text string
		want string
	}{
		{"remind me to call mom tomorrow at 5pm", "call mom"},
		{"Remind me to submit the essay friday", "submit essay"},
		{"soccer practice every tuesday at 2pm", "soccer practice"},
		{"gym on mondays", "gym"},
		{"I have a dentist appointment tomorrow", "dentist appointment"},
		{"remind me", ""},
		{"tomorrow at noon", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractEvent(lex, tt.text))
		})
	}
}

func TestExtractTime(t *testing.T) {
	t.Parallel()

	lex := lexicon.Default()
	assert.Equal(t, "5pm", ExtractTime(lex, "call mom at 5pm"))
	assert.Equal(t, "10:30 am", ExtractTime(lex, "meeting at 10:30 am tomorrow"))
	assert.Equal(t, "14:00", ExtractTime(lex, "lab at 14:00"))
	assert.Equal(t, "12:00 pm", ExtractTime(lex, "lunch at noon"))
	assert.Equal(t, "7pm", ExtractTime(lex, "tonight at 7pm in the evening"))
	assert.Empty(t, ExtractTime(lex, "call mom"))
}

func TestExtractDates(t *testing.T) {
	t.Parallel()

	lex := lexicon.Default()
	got := ExtractDates(lex, "dentist on March 3, 2025 or tmrw, otherwise fri")
	assert.Equal(t, nlu.Entities{
		nlu.SlotDateAbs:   "March 3, 2025",
		nlu.SlotDateRel:   "tomorrow",
		nlu.SlotDayOfWeek: "friday",
	}, got)

	assert.Empty(t, ExtractDates(lex, "call mom"))
}

func TestExtractDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2 hours", ExtractDuration("study for 2 hours"))
	assert.Equal(t, "45min", ExtractDuration("run for 45min"))
	assert.Empty(t, ExtractDuration("run for fun"))
}

func TestExtractor_Merge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		tagger model.Tagger
		text   string
		want   nlu.Entities
	}{
		{
			name: "fallback fills blank slots",
			tagger: stubTagger{out: model.TaggerOutput{
				Tokens: []string{"got", "92", "%", "on", "the", "quiz"},
				Labels: []string{"O", "B-SCORE_VALUE", "O", "O", "O", "O"},
			}},
			text: "got 92% on the quiz",
			want: nlu.Entities{nlu.SlotScoreValue: "92", nlu.SlotAssignment: "quiz"},
		},
		{
			name: "integer fallback score overrides tagger",
			tagger: stubTagger{out: model.TaggerOutput{
				Tokens: []string{"got", "9", "2", "%"},
				Labels: []string{"O", "B-SCORE_VALUE", "O", "O"},
			}},
			text: "got 92%",
			want: nlu.Entities{nlu.SlotScoreValue: "92"},
		},
		{
			name: "decimal fallback score keeps tagger value",
			tagger: stubTagger{out: model.TaggerOutput{
				Tokens: []string{"got", "44", ".", "5", "%"},
				Labels: []string{"O", "B-SCORE_VALUE", "O", "O", "O"},
			}},
			text: "got 44.5%",
			want: nlu.Entities{nlu.SlotScoreValue: "44"},
		},
		{
			name: "weight with percent sign overrides tagger",
			tagger: stubTagger{out: model.TaggerOutput{
				Tokens: []string{"quiz", "worth", "20"},
				Labels: []string{"B-ASSIGNMENT", "O", "B-WEIGHT_PERCENT"},
			}},
			text: "quiz worth 20%",
			want: nlu.Entities{nlu.SlotAssignment: "quiz", nlu.SlotWeightPercent: "20%"},
		},
		{
			name:   "tagger error leaves fallback",
			tagger: stubTagger{err: errors.New("service down")},
			text:   "got 92% on the quiz",
			want:   nlu.Entities{nlu.SlotScoreValue: "92", nlu.SlotAssignment: "quiz"},
		},
		{
			name: "misaligned output leaves fallback",
			tagger: stubTagger{out: model.TaggerOutput{
				Tokens: []string{"got", "92"},
				Labels: []string{"O"},
			}},
			text: "got 92% on the quiz",
			want: nlu.Entities{nlu.SlotScoreValue: "92", nlu.SlotAssignment: "quiz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			services := model.Services{Taggers: map[nlu.Intent]model.Tagger{nlu.IntentGradeTracking: tt.tagger}}
			set := NewSet(services, lexicon.Default(), nil, nil)
			assert.Equal(t, tt.want, set.Extract(context.Background(), nlu.IntentGradeTracking, tt.text))
		})
	}
}

func TestSet_RuleTaggers(t *testing.T) {
	t.Parallel()

	lex := lexicon.Default()
	resolver := course.NewResolver(course.NewRoster([]string{"Organic Chemistry"}), lex, course.Options{})
	set := NewSet(model.RuleServices(nil), lex, resolver, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		intent nlu.Intent
		text   string
		want   nlu.Entities
	}{
		{
			name:   "grade",
			intent: nlu.IntentGradeTracking,
			text:   "got 44.5 percent on the orgo midterm worth 20%",
			want: nlu.Entities{
				nlu.SlotCourseName:    "Organic Chemistry",
				nlu.SlotAssignment:    "midterm",
				nlu.SlotScoreValue:    "44.5",
				nlu.SlotWeightPercent: "20%",
			},
		},
		{
			name:   "fraction",
			intent: nlu.IntentGradeTracking,
			text:   "44/50 on quiz",
			want: nlu.Entities{
				nlu.SlotAssignment: "quiz",
				nlu.SlotScoreValue: "44",
				nlu.SlotMaxScore:   "50",
			},
		},
		{
			name:   "scheduled",
			intent: nlu.IntentScheduledEvent,
			text:   "soccer practice every tuesday at 2pm",
			want: nlu.Entities{
				nlu.SlotEvent:     "soccer practice",
				nlu.SlotDayOfWeek: "tuesday",
				nlu.SlotTime:      "2pm",
			},
		},
		{
			name:   "reminder",
			intent: nlu.IntentEventReminder,
			text:   "remind me to call mom tomorrow at 5pm",
			want: nlu.Entities{
				nlu.SlotEvent:   "call mom",
				nlu.SlotDateRel: "tomorrow",
				nlu.SlotTime:    "5pm",
			},
		},
		{
			name:   "unknown unions every fallback",
			intent: nlu.IntentUnknown,
			text:   "orgo quiz 92% tomorrow at 5pm",
			want: nlu.Entities{
				nlu.SlotCourseName: "Organic Chemistry",
				nlu.SlotAssignment: "quiz",
				nlu.SlotScoreValue: "92",
				nlu.SlotEvent:      "orgo quiz",
				nlu.SlotDateRel:    "tomorrow",
				nlu.SlotTime:       "5pm",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, set.Extract(ctx, tt.intent, tt.text))
		})
	}
}
