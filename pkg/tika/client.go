// Package tika provides a client for an Apache Tika server, used for
// native structured-text extraction from documents and presentations.
package tika

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
)

// Client is a Tika server client.
type Client struct {
	serverURL string
	client    *http.Client
}

// NewClient creates a new Tika client.
func NewClient(cfg config.TikaConfig) *Client {
	return &Client{serverURL: cfg.ServerURL, client: &http.Client{}}
}

// ExtractText infers the MIME type from the file name and asks Tika for the
// plain-text rendition of the bytes. An empty body is returned as-is; the
// caller decides whether a missing text layer is terminal for its chain.
func (c *Client) ExtractText(ctx context.Context, fileReader io.Reader, fileName string) (string, error) {
	contentType := detectMimeType(fileName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.serverURL+"/tika", fileReader)
	if err != nil {
		return "", errs.Terminalf("failed to create tika request: %v", err)
	}

	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		// Connection and timeout failures are worth retrying.
		return "", errs.Transientf("failed to call tika: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusUnprocessableEntity {
			return "", errs.Terminalf("tika cannot parse input [%d]: %s", resp.StatusCode, string(body))
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", errs.Transientf("tika returned error [%d]: %s", resp.StatusCode, string(body))
		}
		return "", errs.Terminalf("tika returned error [%d]: %s", resp.StatusCode, string(body))
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		return "", errs.Transientf("failed to read tika response: %v", err)
	}

	return buf.String(), nil
}

// detectMimeType maps a file extension to a Content-Type.
func detectMimeType(fileName string) string {
	ext := filepath.Ext(fileName)
	if ext == "" {
		return "application/octet-stream"
	}
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
