package valueobjects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindweave/domain/config"
	pkgerrors "mindweave/pkg/errors"
)

func TestNewTitle(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		wantErr  bool
	}{
		{
			name:     "plain text",
			text:     "My idea",
			expected: "My idea",
		},
		{
			name:     "empty is legal",
			text:     "",
			expected: "",
		},
		{
			name:     "trailing whitespace trimmed",
			text:     "trimmed  \t\n",
			expected: "trimmed",
		},
		{
			name:     "leading whitespace kept",
			text:     "  indented",
			expected: "  indented",
		},
		{
			name:     "unicode",
			text:     "Idée 日本語",
			expected: "Idée 日本語",
		},
		{
			name:    "over the length limit",
			text:    strings.Repeat("x", 501),
			wantErr: true,
		},
		{
			name:    "invalid utf8",
			text:    "bad\xff",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, err := NewTitle(tt.text)

			if tt.wantErr {
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, title.String())
		})
	}
}

func TestNewTitleWithConfig_LengthCountsRunes(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxTitleLength = 3

	_, err := NewTitleWithConfig("日本語", cfg)
	assert.NoError(t, err, "three runes fit a three rune limit")

	_, err = NewTitleWithConfig("日本語で", cfg)
	assert.Error(t, err)
}

func TestTitle_IsEmpty(t *testing.T) {
	empty, err := NewTitle("")
	require.NoError(t, err)
	blank, err := NewTitle("   ")
	require.NoError(t, err)
	filled, err := NewTitle("text")
	require.NoError(t, err)

	assert.True(t, empty.IsEmpty())
	assert.True(t, blank.IsEmpty())
	assert.False(t, filled.IsEmpty())
}
