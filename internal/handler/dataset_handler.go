package handler

import (
	"net/http"
	"strconv"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/service"
	"github.com/gin-gonic/gin"
)

// DatasetHandler serves the curation endpoints.
type DatasetHandler struct {
	curation service.CurationService
}

// NewDatasetHandler creates the dataset handler.
func NewDatasetHandler(curation service.CurationService) *DatasetHandler {
	return &DatasetHandler{curation: curation}
}

type createDatasetRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	SourceFileIDs []string `json:"sourceFileIds"`
}

// Create handles POST /api/v1/datasets.
func (h *DatasetHandler) Create(c *gin.Context) {
	var req createDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.Validationf("invalid request body: %v", err))
		return
	}

	dataset, err := h.curation.CreateDataset(c.Request.Context(), req.Name, req.Description, req.SourceFileIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dataset)
}

// Get handles GET /api/v1/datasets/:id.
func (h *DatasetHandler) Get(c *gin.Context) {
	dataset, err := h.curation.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dataset)
}

// List handles GET /api/v1/datasets.
func (h *DatasetHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	datasets, err := h.curation.List(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

// Update handles PUT /api/v1/datasets/:id.
func (h *DatasetHandler) Update(c *gin.Context) {
	var update service.CurationUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		fail(c, errs.Validationf("invalid request body: %v", err))
		return
	}

	dataset, err := h.curation.UpdateCuration(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dataset)
}

// Approve handles POST /api/v1/datasets/:id/approve.
func (h *DatasetHandler) Approve(c *gin.Context) {
	dataset, err := h.curation.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dataset)
}

// Preview handles GET /api/v1/datasets/:id/preview.
func (h *DatasetHandler) Preview(c *gin.Context) {
	text, err := h.curation.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasetId": c.Param("id"), "text": text})
}

// ApprovedText handles GET /api/v1/datasets/:id/approved-text.
func (h *DatasetHandler) ApprovedText(c *gin.Context) {
	text, err := h.curation.ApprovedText(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasetId": c.Param("id"), "text": text})
}

// CreateRevision handles POST /api/v1/datasets/:id/revisions.
func (h *DatasetHandler) CreateRevision(c *gin.Context) {
	dataset, err := h.curation.CreateRevision(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, dataset)
}
