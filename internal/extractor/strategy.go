// Package extractor implements the per-media-kind extraction chains. Each
// media kind maps to an ordered list of strategies; the chain walks them
// until one produces text whose combined confidence clears the threshold.
package extractor

import "context"

// Extraction method identifiers recorded on processed content.
const (
	MethodNative      = "native"
	MethodOCRPrimary  = "ocr-primary"
	MethodOCRFallback = "ocr-fallback"
	MethodSpeech      = "speech-to-text"
	MethodSlides      = "slide-parser"
)

// reliability is the inherent trust in each extraction method, multiplied
// by the engine's per-call confidence to produce the final score.
var reliability = map[string]float64{
	MethodNative:      1.0,
	MethodSlides:      1.0,
	MethodOCRPrimary:  0.9,
	MethodOCRFallback: 0.75,
	MethodSpeech:      0.85,
}

// Reliability returns the inherent reliability of a method, or 0 for an
// unknown method name.
func Reliability(method string) float64 {
	return reliability[method]
}

// Result is the raw output of one strategy invocation. Confidence is the
// engine's own estimate in [0, 1], before the method reliability is applied.
type Result struct {
	Text       string
	Confidence float64
}

// Strategy is one way of turning file bytes into text.
type Strategy interface {
	// Name returns the method identifier recorded on success.
	Name() string
	// Extract runs the strategy against the raw bytes. fileName carries the
	// original title so format detection can use the extension.
	Extract(ctx context.Context, data []byte, fileName string) (*Result, error)
}
