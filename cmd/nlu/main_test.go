package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/engine"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

func TestParseCourses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ,", nil},
		{"Organic Chemistry, Calculus II", []string{"Organic Chemistry", "Calculus II"}},
		{"Biology,biology ,Calculus II", []string{"Biology", "Calculus II"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseCourses(tt.in))
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	events := make(chan course.AmbiguityEvent, 1)
	e := engine.New(engine.Config{Services: model.RuleServices(nil), Events: events})
	e.SetRoster([]string{"Organic Chemistry"}, nil)

	in := strings.NewReader("remind me to call mom tomorrow at noon\n\n   \ngot 44.5 percent on the orgo midterm worth 20%\n")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), e, events, in, &out))

	var lines []output
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var o output
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &o))
		lines = append(lines, o)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, "remind me to call mom tomorrow at noon", lines[0].Text)
	assert.Equal(t, nlu.IntentEventReminder, lines[0].Intent)
	assert.Equal(t, nlu.Entities{
		nlu.SlotEvent:   "call mom",
		nlu.SlotDateRel: "tomorrow",
		nlu.SlotTime:    "12:00 pm",
	}, lines[0].Entities)
	assert.NotNil(t, lines[0].MissingFields)

	assert.Equal(t, nlu.IntentGradeTracking, lines[1].Intent)
	assert.Equal(t, "Organic Chemistry", lines[1].Entities.Get(nlu.SlotCourseName))
	assert.Equal(t, nlu.SourceKeywordNoModel, lines[1].Source)
	assert.Empty(t, lines[1].MissingFields)
	assert.Empty(t, lines[1].FollowUp)
	assert.Empty(t, lines[1].Ambiguous)
}
