// Package unifier normalizes extracted text into the single analysis-ready
// representation stored on processed content. Normalization is deterministic:
// the same extraction output and signals always produce the same bytes.
package unifier

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/extractor"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
)

// signalsMarker opens the appended external-signals section of the unified
// text. StripSignals cuts at this marker.
const signalsMarker = "\n\n=== EXTERNAL SIGNALS ===\n"

var (
	hyphenBreak   = regexp.MustCompile(`(\w)-\n(\w)`)
	multiBlank    = regexp.MustCompile(`\n{3,}`)
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	runSpaces     = regexp.MustCompile(`[ \t]{2,}`)
)

// Normalize cleans raw extraction output: line-break hyphenation is joined,
// control characters are stripped, whitespace runs collapse, and blank-line
// runs shrink to a single paragraph break.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = hyphenBreak.ReplaceAllString(text, "$1$2")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	text = b.String()

	text = runSpaces.ReplaceAllString(text, " ")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = multiBlank.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Unify combines a chain outcome with optional external signals into the
// unified text. Signals render as an appended section in sorted key order so
// repeated runs over identical inputs are byte-identical.
func Unify(outcome *extractor.Outcome, signals model.JSONMap) (string, float64) {
	return Apply(Normalize(outcome.Text), outcome.Confidence, signals)
}

// Apply attaches external signals to already-normalized text. Re-collection
// uses it directly: StripSignals on the stored text, then Apply with the
// fresh signals.
func Apply(text string, confidence float64, signals model.JSONMap) (string, float64) {
	if len(signals) == 0 {
		return text, confidence
	}

	keys := make([]string, 0, len(signals))
	for k := range signals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(text)
	b.WriteString(signalsMarker)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s: %s\n", k, renderSignal(signals[k])))
	}
	return strings.TrimSpace(b.String()), confidence
}

// StripSignals returns the unified text without its external-signals
// section, or the text unchanged when none was appended.
func StripSignals(text string) string {
	if idx := strings.Index(text, signalsMarker); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

func renderSignal(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, renderSignal(item))
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, renderSignal(t[k])))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
