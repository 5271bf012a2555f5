package layout

import (
	"strings"
	"unicode/utf8"

	"mindweave/domain/config"
)

// Estimator predicts the rendered size of a node box from its title
// text alone. There is no DOM here: wrapping is simulated with a fixed
// average character width, so results are deterministic for a given
// configuration. Height and width share the same wrap so they can never
// disagree about line counts.
type Estimator struct {
	cfg          *config.DomainConfig
	maxLineChars int
}

// NewEstimator creates an estimator from layout configuration
func NewEstimator(cfg *config.DomainConfig) *Estimator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	maxChars := int((cfg.MaxNodeWidth - cfg.HorizontalPad) / cfg.AvgCharWidth)
	if maxChars < 1 {
		maxChars = 1
	}
	return &Estimator{cfg: cfg, maxLineChars: maxChars}
}

// Height estimates the rendered box height for the given text
func (e *Estimator) Height(text string) float64 {
	minHeight := e.cfg.LineHeight + e.cfg.BasePadding

	lines := e.wrap(text)
	if len(lines) == 0 {
		return minHeight
	}

	height := float64(len(lines))*e.cfg.LineHeight + e.cfg.BasePadding
	if len(lines) > 1 {
		height += e.cfg.MultilinePadding
	}
	if len(lines) >= e.cfg.TallNodeLines {
		height += e.cfg.TallNodePadding
	}

	if height < minHeight {
		return minHeight
	}
	return height
}

// Width estimates the rendered box width for the given text
func (e *Estimator) Width(text string) float64 {
	lines := e.wrap(text)
	if len(lines) == 0 {
		return e.cfg.MinNodeWidth
	}

	longest := 0
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}

	width := float64(longest)*e.cfg.AvgCharWidth + e.cfg.HorizontalPad
	if width < e.cfg.MinNodeWidth {
		return e.cfg.MinNodeWidth
	}
	if width > e.cfg.MaxNodeWidth {
		return e.cfg.MaxNodeWidth
	}
	return width
}

// wrap splits text into lines by greedy word packing. A word joins the
// current line when line + separator + word still fits; otherwise it
// starts a new line. Line lengths count runes, matching how titles are
// validated. Whitespace-only text wraps to no lines at all.
func (e *Estimator) wrap(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(word)+1 <= e.maxLineChars {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}
