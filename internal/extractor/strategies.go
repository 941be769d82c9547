package extractor

import (
	"bytes"
	"context"
	"strings"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/speech"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/tesseract"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/tika"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/vision"
)

// nativeText extracts the structured text layer of a document via Tika.
// Scanned documents have no text layer; that case is terminal for this
// strategy so the chain falls through to OCR.
type nativeText struct {
	tika *tika.Client
}

func (s *nativeText) Name() string { return MethodNative }

func (s *nativeText) Extract(ctx context.Context, data []byte, fileName string) (*Result, error) {
	text, err := s.tika.ExtractText(ctx, bytes.NewReader(data), fileName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errs.Terminalf("document has no extractable text layer")
	}
	return &Result{Text: text, Confidence: 1.0}, nil
}

// slideParser extracts slide text and speaker notes from presentations.
// Tika walks the slide structure, so this shares the transport with
// nativeText but reports its own method.
type slideParser struct {
	tika *tika.Client
}

func (s *slideParser) Name() string { return MethodSlides }

func (s *slideParser) Extract(ctx context.Context, data []byte, fileName string) (*Result, error) {
	text, err := s.tika.ExtractText(ctx, bytes.NewReader(data), fileName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errs.Terminalf("presentation contains no extractable text")
	}
	return &Result{Text: text, Confidence: 1.0}, nil
}

// ocrPrimary runs the cloud vision OCR service.
type ocrPrimary struct {
	vision *vision.Client
}

func (s *ocrPrimary) Name() string { return MethodOCRPrimary }

func (s *ocrPrimary) Extract(ctx context.Context, data []byte, _ string) (*Result, error) {
	annotation, err := s.vision.Annotate(ctx, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(annotation.Text) == "" {
		return nil, errs.Terminalf("no text detected in image")
	}
	return &Result{Text: annotation.Text, Confidence: annotation.Confidence()}, nil
}

// ocrFallback runs the local Tesseract server when the cloud OCR service
// is unreachable or produced nothing usable.
type ocrFallback struct {
	tesseract *tesseract.Client
}

func (s *ocrFallback) Name() string { return MethodOCRFallback }

func (s *ocrFallback) Extract(ctx context.Context, data []byte, _ string) (*Result, error) {
	result, err := s.tesseract.Recognize(ctx, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Text) == "" {
		return nil, errs.Terminalf("no text recognized in image")
	}
	return &Result{Text: result.Text, Confidence: result.Confidence}, nil
}

// transcribe converts audio (or the audio track of video) to text.
type transcribe struct {
	speech *speech.Client
	media  string
}

func (s *transcribe) Name() string { return MethodSpeech }

func (s *transcribe) Extract(ctx context.Context, data []byte, _ string) (*Result, error) {
	transcript, err := s.speech.Transcribe(ctx, data, s.media)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(transcript.Text) == "" {
		return nil, errs.Terminalf("media contains no recognizable speech")
	}
	return &Result{Text: transcript.Text, Confidence: transcript.Confidence}, nil
}
