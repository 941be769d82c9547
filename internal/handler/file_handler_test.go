package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIngest struct {
	submit  func(ctx context.Context, req service.UploadRequest) (*service.UploadResult, error)
	status  func(ctx context.Context, fileID string) (*model.RawFile, error)
	cancel  func(ctx context.Context, fileID string) error
	collect func(ctx context.Context, fileID string) (*model.ProcessedContent, error)
}

func (s *stubIngest) Submit(ctx context.Context, req service.UploadRequest) (*service.UploadResult, error) {
	return s.submit(ctx, req)
}

func (s *stubIngest) SubmitBatch(_ context.Context, _ []service.UploadRequest) (*service.BatchReport, error) {
	return &service.BatchReport{}, nil
}

func (s *stubIngest) Status(ctx context.Context, fileID string) (*model.RawFile, error) {
	return s.status(ctx, fileID)
}

func (s *stubIngest) Cancel(ctx context.Context, fileID string) error {
	return s.cancel(ctx, fileID)
}

func (s *stubIngest) BatchReport(_ context.Context, _ string) (*service.BatchReport, error) {
	return nil, errs.ErrNotFound
}

func (s *stubIngest) Collect(ctx context.Context, fileID string) (*model.ProcessedContent, error) {
	return s.collect(ctx, fileID)
}

func (s *stubIngest) SupportedMediaKinds() []string {
	return model.MediaKinds
}

func (s *stubIngest) Close() error { return nil }

func newFileRouter(ingest service.IngestService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewFileHandler(ingest, nil)
	r.POST("/api/v1/files", h.Upload)
	r.GET("/api/v1/files/:id/status", h.Status)
	r.POST("/api/v1/files/:id/cancel", h.Cancel)
	r.POST("/api/v1/files/:id/collect", h.Collect)
	r.GET("/api/v1/files/supported-types", h.SupportedTypes)
	return r
}

func multipartUpload(t *testing.T, fields map[string]string, fileField, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile(fileField, fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	t.Run("accepted upload returns 202", func(t *testing.T) {
		ingest := &stubIngest{
			submit: func(_ context.Context, req service.UploadRequest) (*service.UploadResult, error) {
				assert.Equal(t, model.MediaDocument, req.MediaKind)
				assert.Equal(t, "deck.pdf", req.Title)
				assert.True(t, req.CollectExternal)
				return &service.UploadResult{FileID: "f1", Status: model.StatusUploaded}, nil
			},
		}
		r := newFileRouter(ingest)

		body, contentType := multipartUpload(t, map[string]string{
			"media_kind":       model.MediaDocument,
			"collect_external": "true",
		}, "file", "deck.pdf", []byte("pdf bytes"))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)

		var result service.UploadResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "f1", result.FileID)
	})

	t.Run("duplicate upload returns 200", func(t *testing.T) {
		ingest := &stubIngest{
			submit: func(_ context.Context, _ service.UploadRequest) (*service.UploadResult, error) {
				return &service.UploadResult{FileID: "f1", Status: model.StatusExtracted, Duplicate: true}, nil
			},
		}
		r := newFileRouter(ingest)

		body, contentType := multipartUpload(t, map[string]string{"media_kind": model.MediaDocument}, "file", "deck.pdf", []byte("pdf bytes"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("validation failure returns 400", func(t *testing.T) {
		ingest := &stubIngest{
			submit: func(_ context.Context, _ service.UploadRequest) (*service.UploadResult, error) {
				return nil, errs.Validationf("unsupported media kind")
			},
		}
		r := newFileRouter(ingest)

		body, contentType := multipartUpload(t, map[string]string{"media_kind": "archive"}, "file", "x.zip", []byte("zip"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file part returns 400", func(t *testing.T) {
		r := newFileRouter(&stubIngest{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/files", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("known file", func(t *testing.T) {
		ingest := &stubIngest{
			status: func(_ context.Context, fileID string) (*model.RawFile, error) {
				return &model.RawFile{FileID: fileID, Status: model.StatusProcessing}, nil
			},
		}
		r := newFileRouter(ingest)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/files/f1/status", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), model.StatusProcessing)
	})

	t.Run("unknown file returns 404", func(t *testing.T) {
		ingest := &stubIngest{
			status: func(_ context.Context, _ string) (*model.RawFile, error) {
				return nil, errs.ErrNotFound
			},
		}
		r := newFileRouter(ingest)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/files/ghost/status", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCollectEndpoint(t *testing.T) {
	t.Run("refreshed content returned", func(t *testing.T) {
		ingest := &stubIngest{
			collect: func(_ context.Context, fileID string) (*model.ProcessedContent, error) {
				return &model.ProcessedContent{FileID: fileID, UnifiedText: "text\n\n=== EXTERNAL SIGNALS ===\nfunding: Series A"}, nil
			},
		}
		r := newFileRouter(ingest)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/files/f1/collect", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "EXTERNAL SIGNALS")
	})

	t.Run("collector disabled returns 503", func(t *testing.T) {
		ingest := &stubIngest{
			collect: func(_ context.Context, _ string) (*model.ProcessedContent, error) {
				return nil, errs.ErrCollectorUnavailable
			},
		}
		r := newFileRouter(ingest)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/files/f1/collect", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("file not extracted returns 409", func(t *testing.T) {
		ingest := &stubIngest{
			collect: func(_ context.Context, fileID string) (*model.ProcessedContent, error) {
				return nil, &errs.NotReadyError{FileID: fileID, Status: model.StatusProcessing}
			},
		}
		r := newFileRouter(ingest)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/files/f1/collect", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestSupportedTypesEndpoint(t *testing.T) {
	r := newFileRouter(&stubIngest{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/supported-types", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	for _, kind := range model.MediaKinds {
		assert.Contains(t, rec.Body.String(), kind)
	}
}
