// Package tesseract provides a client for the local Tesseract OCR server
// used as the fallback OCR strategy.
package tesseract

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
)

// Result is the OCR output of the local engine.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Client is a client for the Tesseract OCR HTTP server.
type Client struct {
	serverURL string
	client    *http.Client
}

// NewClient creates a new Tesseract client.
func NewClient(cfg config.TesseractConfig) *Client {
	return &Client{serverURL: cfg.ServerURL, client: &http.Client{}}
}

// Recognize submits image bytes and returns the recognized text with the
// engine's mean confidence.
func (c *Client) Recognize(ctx context.Context, image []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/ocr", bytes.NewReader(image))
	if err != nil {
		return nil, errs.Terminalf("failed to create ocr request: %v", err)
	}

	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Transientf("failed to call tesseract server: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, errs.Transientf("tesseract server returned [%d]: %s", resp.StatusCode, string(body))
		}
		return nil, errs.Terminalf("tesseract server returned [%d]: %s", resp.StatusCode, string(body))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errs.Transientf("failed to decode tesseract response: %v", err)
	}

	return &result, nil
}
