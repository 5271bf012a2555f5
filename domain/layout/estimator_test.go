package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"mindweave/domain/config"
)

func TestEstimator_Height(t *testing.T) {
	est := NewEstimator(config.DefaultDomainConfig())

	tests := []struct {
		name     string
		title    string
		expected float64
	}{
		{
			name:     "empty title gets the single line minimum",
			title:    "",
			expected: 44,
		},
		{
			name:     "whitespace only gets the single line minimum",
			title:    "   \t  ",
			expected: 44,
		},
		{
			name:     "short single line",
			title:    "hello",
			expected: 44,
		},
		{
			name:  "three wrapped lines get the multiline padding",
			title: strings.Repeat("abcdefgh ", 10),
			// 10 words of 8 chars wrap 4 per line at the 41 char limit
			expected: 3*24 + 20 + 6,
		},
		{
			name:     "five lines add the tall node padding",
			title:    strings.Repeat("abcdefgh ", 20),
			expected: 5*24 + 20 + 6 + 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, est.Height(tt.title), 1e-9)
		})
	}
}

func TestEstimator_Width(t *testing.T) {
	est := NewEstimator(config.DefaultDomainConfig())

	tests := []struct {
		name     string
		title    string
		expected float64
	}{
		{
			name:     "short text clamps to the minimum width",
			title:    "hi",
			expected: 80,
		},
		{
			name:     "medium text grows with the longest line",
			title:    strings.Repeat("a", 20),
			expected: 20*7.2 + 24,
		},
		{
			name:     "long unbroken text clamps to the maximum width",
			title:    strings.Repeat("a", 200),
			expected: 320,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, est.Width(tt.title), 1e-9)
		})
	}
}

// Titles are validated by rune count, so sizing counts runes too: a
// multibyte title must measure the same as an ASCII title of equal
// character length.
func TestEstimator_MultibyteTextMeasuresByRunes(t *testing.T) {
	est := NewEstimator(config.DefaultDomainConfig())

	japanese := strings.Repeat("日本語のノート ", 3)
	ascii := strings.Repeat("abcdefg ", 3)

	assert.InDelta(t, est.Width(ascii), est.Width(japanese), 1e-9)
	assert.InDelta(t, est.Height(ascii), est.Height(japanese), 1e-9)

	wide := strings.Repeat("日", 20)
	assert.InDelta(t, 20*7.2+24, est.Width(wide), 1e-9)
}

func TestEstimator_HeightGrowsMonotonically(t *testing.T) {
	est := NewEstimator(config.DefaultDomainConfig())

	short := est.Height("one line")
	medium := est.Height(strings.Repeat("word ", 15))
	long := est.Height(strings.Repeat("word ", 60))

	assert.Less(t, short, medium)
	assert.Less(t, medium, long)
}
