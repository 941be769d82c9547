package extractor

import (
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/speech"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/tesseract"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/tika"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/vision"
)

// Set holds one chain per media kind.
type Set struct {
	chains map[string]*Chain
}

// NewSet wires the strategy clients into the per-kind fallback chains:
//
//	document:     native -> ocr-primary -> ocr-fallback
//	image:        ocr-primary -> ocr-fallback
//	presentation: slide-parser
//	audio, video: speech-to-text
func NewSet(cfg config.ExtractionConfig) *Set {
	tikaClient := tika.NewClient(cfg.Tika)
	visionClient := vision.NewClient(cfg.Vision)
	tesseractClient := tesseract.NewClient(cfg.Tesseract)
	speechClient := speech.NewClient(cfg.Speech)

	native := &nativeText{tika: tikaClient}
	slides := &slideParser{tika: tikaClient}
	primary := &ocrPrimary{vision: visionClient}
	fallback := &ocrFallback{tesseract: tesseractClient}

	threshold := cfg.ConfidenceThreshold
	timeout := cfg.StrategyTimeout

	return &Set{chains: map[string]*Chain{
		model.MediaDocument:     NewChain(model.MediaDocument, threshold, timeout, native, primary, fallback),
		model.MediaImage:        NewChain(model.MediaImage, threshold, timeout, primary, fallback),
		model.MediaPresentation: NewChain(model.MediaPresentation, threshold, timeout, slides),
		model.MediaAudio:        NewChain(model.MediaAudio, threshold, timeout, &transcribe{speech: speechClient, media: "audio"}),
		model.MediaVideo:        NewChain(model.MediaVideo, threshold, timeout, &transcribe{speech: speechClient, media: "video"}),
	}}
}

// ChainFor returns the chain for a media kind.
func (s *Set) ChainFor(kind string) (*Chain, error) {
	chain, ok := s.chains[kind]
	if !ok {
		return nil, errs.Terminalf("no extraction chain for media kind %s", kind)
	}
	return chain, nil
}
