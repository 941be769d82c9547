// Package speech provides a client for the speech-to-text service. The
// service demuxes the audio track server-side, so the same call covers
// audio files and video containers.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
)

// Transcript is the transcription output for one media file.
type Transcript struct {
	Text       string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

// Client is a client for the speech-to-text HTTP API.
type Client struct {
	cfg    config.SpeechConfig
	client *http.Client
}

// NewClient creates a new speech-to-text client.
func NewClient(cfg config.SpeechConfig) *Client {
	return &Client{cfg: cfg, client: &http.Client{}}
}

// Transcribe submits media bytes for transcription. media is "audio" or
// "video"; for video the service extracts the audio track first and a
// missing track is a terminal failure.
func (c *Client) Transcribe(ctx context.Context, data []byte, media string) (*Transcript, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/transcribe?media="+media, bytes.NewReader(data))
	if err != nil {
		return nil, errs.Terminalf("failed to create transcribe request: %v", err)
	}

	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Transientf("failed to call speech api: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, errs.Transientf("speech api returned [%d]: %s", resp.StatusCode, string(body))
		}
		return nil, errs.Terminalf("speech api returned [%d]: %s", resp.StatusCode, string(body))
	}

	var transcript Transcript
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		return nil, errs.Transientf("failed to decode speech response: %v", err)
	}

	return &transcript, nil
}
