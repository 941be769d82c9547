// Package vision provides a client for the cloud OCR service used as the
// primary OCR strategy.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
)

// Word is one recognized token with its engine-reported confidence.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Annotation is the OCR result for one image.
type Annotation struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
}

// Confidence aggregates the per-word confidences by length-weighted mean.
// An annotation without word details falls back to 1.0 so the strategy's
// inherent reliability alone decides the score.
func (a *Annotation) Confidence() float64 {
	var weighted, total float64
	for _, w := range a.Words {
		n := float64(len(w.Text))
		weighted += n * w.Confidence
		total += n
	}
	if total == 0 {
		return 1.0
	}
	return weighted / total
}

// Client is a client for the vision OCR HTTP API.
type Client struct {
	cfg    config.VisionConfig
	client *http.Client
}

// NewClient creates a new vision OCR client.
func NewClient(cfg config.VisionConfig) *Client {
	return &Client{cfg: cfg, client: &http.Client{}}
}

type annotateRequest struct {
	Image string `json:"image"`
}

// Annotate submits image bytes for text detection.
func (c *Client) Annotate(ctx context.Context, image []byte) (*Annotation, error) {
	reqBody := annotateRequest{Image: base64.StdEncoding.EncodeToString(image)}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errs.Terminalf("failed to marshal annotate request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/images:annotate", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, errs.Terminalf("failed to create annotate request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Transientf("failed to call vision api: %v", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, errs.Transientf("vision api returned status %s", resp.Status)
	default:
		return nil, errs.Terminalf("vision api returned status %s", resp.Status)
	}

	var annotation Annotation
	if err := json.NewDecoder(resp.Body).Decode(&annotation); err != nil {
		return nil, errs.Transientf("failed to decode vision response: %v", err)
	}

	return &annotation, nil
}
