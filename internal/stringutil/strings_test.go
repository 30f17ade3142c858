package stringutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUtterance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim and collapse", "  got   92%\ton the quiz  ", "got 92% on the quiz"},
		{"full width", "ｇｏｔ ９２％", "got 92%"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeUtterance(tt.input))
		})
	}
}

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"Valid digits", "123456", true},
		{"Empty string", "", false},
		{"Contains letter", "123a456", false},
		{"Decimal point", "44.5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNumeric(tt.input); got != tt.want {
				t.Errorf("IsNumeric(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsDecimal(t *testing.T) {
	assert.True(t, IsDecimal("44.5"))
	assert.True(t, IsDecimal("92"))
	assert.False(t, IsDecimal("."))
	assert.False(t, IsDecimal("1.2.3"))
	assert.False(t, IsDecimal("92%"))
}

func TestIsInt(t *testing.T) {
	assert.True(t, IsInt("92"))
	assert.False(t, IsInt("44.5"))
	assert.False(t, IsInt("88.00"))
}

func TestKeepNumeric(t *testing.T) {
	assert.Equal(t, "20", KeepNumeric("20%"))
	assert.Equal(t, "44.5", KeepNumeric(" 44 . 5 "))
	assert.Equal(t, "", KeepNumeric("percent"))
}

func TestWords(t *testing.T) {
	assert.Equal(t,
		[]string{"got", "44.5", "percent", "on", "the", "orgo", "midterm", "worth", "20%"},
		Words("Got 44.5 percent on the orgo midterm, worth 20%!"))
	assert.Equal(t, []string{"10:30am"}, Words("10:30am."))
}

func TestTrimPunct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Orgo.", "Orgo"},
		{"(gym)", "gym"},
		{"92%.", "92%"},
		{"44.5", "44.5"},
		{"?!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TrimPunct(tt.in), tt.in)
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Organic Chemistry", TitleCase("organic CHEMISTRY"))
}

func TestIsLevelMarker(t *testing.T) {
	t.Parallel()

	for _, w := range []string{"II", "iv", "2", "101", "x"} {
		assert.True(t, IsLevelMarker(w), w)
	}
	for _, w := range []string{"calculus", "intro", "2b", ""} {
		assert.False(t, IsLevelMarker(w), w)
	}
}

func TestSignificantWords(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"calculus"}, SignificantWords("Calculus II"))
	assert.Equal(t, []string{"intro", "to", "programming"}, SignificantWords("Intro to Programming 101"))
	assert.Empty(t, SignificantWords("II"))
}

func TestRomanArabic(t *testing.T) {
	t.Parallel()

	a, ok := RomanToArabic("III")
	assert.True(t, ok)
	assert.Equal(t, "3", a)

	r, ok := ArabicToRoman("2")
	assert.True(t, ok)
	assert.Equal(t, "ii", r)

	_, ok = ArabicToRoman("11")
	assert.False(t, ok)
}
