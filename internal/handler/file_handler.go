package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/service"
	"github.com/gin-gonic/gin"
)

// FileHandler serves the ingestion gateway endpoints.
type FileHandler struct {
	ingest service.IngestService
	search service.SearchService
}

// NewFileHandler creates the file handler.
func NewFileHandler(ingest service.IngestService, search service.SearchService) *FileHandler {
	return &FileHandler{ingest: ingest, search: search}
}

func readUpload(c *gin.Context, field string) ([]byte, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", errs.Validationf("missing file field %q", field)
	}
	f, err := fileHeader.Open()
	if err != nil {
		return nil, "", errs.Validationf("cannot open uploaded file: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", errs.Validationf("cannot read uploaded file: %v", err)
	}
	return data, fileHeader.Filename, nil
}

// Upload handles POST /api/v1/files.
func (h *FileHandler) Upload(c *gin.Context) {
	data, filename, err := readUpload(c, "file")
	if err != nil {
		fail(c, err)
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = filename
	}

	result, err := h.ingest.Submit(c.Request.Context(), service.UploadRequest{
		Data:            data,
		MediaKind:       c.PostForm("media_kind"),
		Title:           title,
		ContextHint:     c.PostForm("context_hint"),
		CollectExternal: c.PostForm("collect_external") == "true",
	})
	if err != nil {
		fail(c, err)
		return
	}

	status := http.StatusAccepted
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// BulkUpload handles POST /api/v1/files/bulk. All files in the form share
// the request-level media kind and context hint.
func (h *FileHandler) BulkUpload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, errs.Validationf("invalid multipart form: %v", err))
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		fail(c, errs.Validationf("no files in field %q", "files"))
		return
	}

	mediaKind := c.PostForm("media_kind")
	contextHint := c.PostForm("context_hint")
	collectExternal := c.PostForm("collect_external") == "true"

	reqs := make([]service.UploadRequest, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			fail(c, errs.Validationf("cannot open uploaded file %s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			fail(c, errs.Validationf("cannot read uploaded file %s: %v", fh.Filename, err))
			return
		}
		reqs = append(reqs, service.UploadRequest{
			Data:            data,
			MediaKind:       mediaKind,
			Title:           fh.Filename,
			ContextHint:     contextHint,
			CollectExternal: collectExternal,
		})
	}

	report, err := h.ingest.SubmitBatch(c.Request.Context(), reqs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, report)
}

// Status handles GET /api/v1/files/:id/status.
func (h *FileHandler) Status(c *gin.Context) {
	file, err := h.ingest.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

// Cancel handles POST /api/v1/files/:id/cancel.
func (h *FileHandler) Cancel(c *gin.Context) {
	if err := h.ingest.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fileId": c.Param("id"), "status": "cancelled"})
}

// Collect handles POST /api/v1/files/:id/collect. It re-runs external
// signal collection for an extracted file and returns the refreshed content.
func (h *FileHandler) Collect(c *gin.Context) {
	content, err := h.ingest.Collect(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// BatchReport handles GET /api/v1/files/batches/:id.
func (h *FileHandler) BatchReport(c *gin.Context) {
	report, err := h.ingest.BatchReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SupportedTypes handles GET /api/v1/files/supported-types.
func (h *FileHandler) SupportedTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mediaKinds": h.ingest.SupportedMediaKinds()})
}

// Search handles GET /api/v1/files/search.
func (h *FileHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	hits, err := h.search.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": c.Query("q"), "hits": hits})
}
