package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/log"
)

// Outcome is the result of a successful chain run. Confidence is the
// combined score: method reliability times the engine's own confidence.
type Outcome struct {
	Text       string
	Confidence float64
	Method     string
}

// Chain runs strategies in order until one clears the confidence threshold.
type Chain struct {
	kind       string
	strategies []Strategy
	threshold  float64
	timeout    time.Duration
}

// NewChain builds a chain for one media kind. The threshold applies to the
// combined confidence; timeout bounds each individual strategy call.
func NewChain(kind string, threshold float64, timeout time.Duration, strategies ...Strategy) *Chain {
	return &Chain{kind: kind, strategies: strategies, threshold: threshold, timeout: timeout}
}

// Run walks the chain. The first strategy whose combined confidence meets
// the threshold wins. If every strategy fails, the chain error is transient
// when any strategy failed transiently (a retry might reach a recovered
// service) and terminal otherwise.
func (c *Chain) Run(ctx context.Context, data []byte, fileName string) (*Outcome, error) {
	var lastErr error
	sawTransient := false

	for _, s := range c.strategies {
		result, err := c.runStrategy(ctx, s, data, fileName)
		if err != nil {
			log.Warnf("[Extractor] strategy %s failed for %s file: %v", s.Name(), c.kind, err)
			lastErr = errs.WithMethod(s.Name(), err)
			if errs.IsTransient(err) {
				sawTransient = true
			}
			continue
		}

		combined := Reliability(s.Name()) * result.Confidence
		if combined >= c.threshold {
			return &Outcome{Text: result.Text, Confidence: combined, Method: s.Name()}, nil
		}

		log.Warnf("[Extractor] strategy %s produced confidence %.2f below threshold %.2f, falling through",
			s.Name(), combined, c.threshold)
		lastErr = &errs.ExtractionError{
			Method: s.Name(),
			Err:    fmt.Errorf("confidence %.2f below threshold %.2f", combined, c.threshold),
		}
	}

	if lastErr == nil {
		return nil, errs.Terminalf("no extraction strategies configured for media kind %s", c.kind)
	}
	if sawTransient && !errs.IsTransient(lastErr) {
		// The last strategy failed terminally but an earlier one looked
		// transient; keep the task retryable.
		var xe *errs.ExtractionError
		if e, ok := lastErr.(*errs.ExtractionError); ok {
			xe = e
		}
		if xe != nil {
			return nil, &errs.ExtractionError{Method: xe.Method, Transient: true, Err: xe.Err}
		}
		return nil, errs.Transientf("extraction failed: %v", lastErr)
	}
	return nil, lastErr
}

func (c *Chain) runStrategy(ctx context.Context, s Strategy, data []byte, fileName string) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return s.Extract(ctx, data, fileName)
}
