package valueobjects

import (
	"strings"
	"unicode/utf8"

	"mindweave/domain/config"
	pkgerrors "mindweave/pkg/errors"
)

// Title is the text shown inside a node box. Empty titles are legal;
// an empty box still renders at the single-line minimum size.
type Title struct {
	value string
}

// NewTitle creates a title with validation using the default configuration
func NewTitle(text string) (Title, error) {
	return NewTitleWithConfig(text, config.DefaultDomainConfig())
}

// NewTitleWithConfig creates a title with validation and configuration
func NewTitleWithConfig(text string, cfg *config.DomainConfig) (Title, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	text = strings.TrimRight(text, " \t\r\n")

	if utf8.RuneCountInString(text) > cfg.MaxTitleLength {
		return Title{}, pkgerrors.NewValidationError("title exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return Title{}, pkgerrors.NewValidationError("title must be valid UTF-8")
	}

	return Title{value: text}, nil
}

// String returns the title text
func (t Title) String() string {
	return t.value
}

// IsEmpty checks whether the title carries any visible text
func (t Title) IsEmpty() bool {
	return strings.TrimSpace(t.value) == ""
}

// Equals checks if two titles are equal
func (t Title) Equals(other Title) bool {
	return t.value == other.value
}
