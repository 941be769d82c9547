package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/repository"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/log"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CurationUpdate carries the editable fields of one curation pass. Fields
// replace their stored counterparts wholesale; there is no partial merge.
type CurationUpdate struct {
	CuratedContent   string   `json:"curatedContent"`
	AddedContent     string   `json:"addedContent"`
	UserNotes        string   `json:"userNotes"`
	ExcludedSections []string `json:"excludedSections"`
	ContentTags      []string `json:"contentTags"`
}

// DatasetView decorates a dataset with its computed curation progress.
type DatasetView struct {
	model.CuratedDataset
	Progress float64 `json:"progress"`
}

// CurationService manages dataset assembly, review and the approval gate.
type CurationService interface {
	CreateDataset(ctx context.Context, name, description string, sourceFileIDs []string) (*DatasetView, error)
	Get(ctx context.Context, datasetID string) (*DatasetView, error)
	List(ctx context.Context, status string, limit int) ([]DatasetView, error)
	UpdateCuration(ctx context.Context, datasetID string, update CurationUpdate) (*DatasetView, error)
	Approve(ctx context.Context, datasetID string) (*DatasetView, error)
	Preview(ctx context.Context, datasetID string) (string, error)

	// ApprovedText returns the analysis-ready text of an approved dataset.
	// Datasets that have not passed the approval gate return NotReadyError.
	ApprovedText(ctx context.Context, datasetID string) (string, error)

	// CreateRevision clones an approved dataset into a new editable one
	// linked back to its predecessor.
	CreateRevision(ctx context.Context, datasetID string) (*DatasetView, error)
}

type curationService struct {
	datasets repository.DatasetRepository
	files    repository.FileRepository

	// approvedCache holds composed approved text. Safe to cache because an
	// approved dataset never changes.
	approvedCache *lru.LRU[string, string]
}

// NewCurationService creates the curation service.
func NewCurationService(datasets repository.DatasetRepository, files repository.FileRepository) CurationService {
	return &curationService{
		datasets:      datasets,
		files:         files,
		approvedCache: lru.NewLRU[string, string](256, nil, time.Hour),
	}
}

func view(d *model.CuratedDataset) *DatasetView {
	return &DatasetView{CuratedDataset: *d, Progress: d.Progress()}
}

// CreateDataset merges the current extracted content of every source file
// into the dataset's raw content. Every source must be extracted; a single
// not-ready source rejects the whole request so the dataset never holds a
// partial merge.
func (s *curationService) CreateDataset(ctx context.Context, name, description string, sourceFileIDs []string) (*DatasetView, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errs.Validationf("dataset name is required")
	}
	if len(sourceFileIDs) == 0 {
		return nil, errs.Validationf("dataset needs at least one source file")
	}
	seen := make(map[string]bool, len(sourceFileIDs))
	for _, id := range sourceFileIDs {
		if seen[id] {
			return nil, errs.Validationf("duplicate source file id: %s", id)
		}
		seen[id] = true
	}

	var parts []string
	for _, fileID := range sourceFileIDs {
		file, err := s.files.FindByID(ctx, fileID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil, errs.Validationf("source file not found: %s", fileID)
			}
			return nil, err
		}
		if file.Status != model.StatusExtracted {
			return nil, &errs.NotReadyError{FileID: fileID, Status: file.Status}
		}

		content, err := s.files.CurrentContent(ctx, fileID)
		if err != nil {
			return nil, fmt.Errorf("failed to load content for file %s: %w", fileID, err)
		}

		title := file.Title
		if title == "" {
			title = fileID
		}
		parts = append(parts, fmt.Sprintf("=== SOURCE: %s ===\n%s", title, content.UnifiedText))
	}

	dataset := &model.CuratedDataset{
		DatasetID:     uuid.NewString(),
		Name:          name,
		Description:   description,
		SourceFileIDs: sourceFileIDs,
		RawContent:    strings.Join(parts, "\n\n"),
		Status:        model.DatasetInProgress,
	}
	if err := s.datasets.Create(ctx, dataset); err != nil {
		return nil, err
	}

	log.Infof("[Curation] dataset %s created from %d source files", dataset.DatasetID, len(sourceFileIDs))
	return view(dataset), nil
}

func (s *curationService) Get(ctx context.Context, datasetID string) (*DatasetView, error) {
	dataset, err := s.datasets.FindByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return view(dataset), nil
}

func (s *curationService) List(ctx context.Context, status string, limit int) ([]DatasetView, error) {
	datasets, err := s.datasets.List(ctx, status, limit)
	if err != nil {
		return nil, err
	}
	views := make([]DatasetView, 0, len(datasets))
	for i := range datasets {
		views = append(views, *view(&datasets[i]))
	}
	return views, nil
}

func (s *curationService) UpdateCuration(ctx context.Context, datasetID string, update CurationUpdate) (*DatasetView, error) {
	dataset := &model.CuratedDataset{
		DatasetID:        datasetID,
		CuratedContent:   update.CuratedContent,
		AddedContent:     update.AddedContent,
		UserNotes:        update.UserNotes,
		ExcludedSections: update.ExcludedSections,
		ContentTags:      update.ContentTags,
		Status:           model.DatasetCompleted,
	}
	if err := s.datasets.UpdateCuration(ctx, dataset); err != nil {
		return nil, err
	}
	return s.Get(ctx, datasetID)
}

// Approve flips the dataset through the approval gate. Approving an already
// approved dataset is a no-op success.
func (s *curationService) Approve(ctx context.Context, datasetID string) (*DatasetView, error) {
	transitioned, err := s.datasets.Approve(ctx, datasetID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if transitioned {
		log.Infof("[Curation] dataset %s approved for analysis", datasetID)
	}
	return s.Get(ctx, datasetID)
}

// composeText builds the analysis-ready text: curated content (raw content
// when no curation happened) plus the reviewer's added section.
func composeText(d *model.CuratedDataset) string {
	content := d.CuratedContent
	if content == "" {
		content = d.RawContent
	}
	if d.AddedContent != "" {
		content = content + "\n\n=== ADDED CONTENT ===\n" + d.AddedContent
	}
	return strings.TrimSpace(content)
}

// Preview renders the analysis-ready text without requiring approval, so
// reviewers can inspect exactly what analysis would receive.
func (s *curationService) Preview(ctx context.Context, datasetID string) (string, error) {
	dataset, err := s.datasets.FindByID(ctx, datasetID)
	if err != nil {
		return "", err
	}
	return composeText(dataset), nil
}

func (s *curationService) ApprovedText(ctx context.Context, datasetID string) (string, error) {
	if text, ok := s.approvedCache.Get(datasetID); ok {
		return text, nil
	}

	dataset, err := s.datasets.FindByID(ctx, datasetID)
	if err != nil {
		return "", err
	}
	if dataset.Status != model.DatasetReadyForAI {
		return "", &errs.NotReadyError{FileID: datasetID, Status: dataset.Status}
	}

	text := composeText(dataset)
	s.approvedCache.Add(datasetID, text)
	return text, nil
}

// CreateRevision clones an approved dataset into a fresh editable record.
// Edits land on the clone; the approved predecessor stays immutable and the
// clone records where it came from.
func (s *curationService) CreateRevision(ctx context.Context, datasetID string) (*DatasetView, error) {
	prev, err := s.datasets.FindByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if prev.Status != model.DatasetReadyForAI {
		return nil, errs.Validationf("only approved datasets can be revised; edit dataset %s directly", datasetID)
	}

	clone := &model.CuratedDataset{
		DatasetID:         uuid.NewString(),
		Name:              prev.Name,
		Description:       prev.Description,
		SourceFileIDs:     prev.SourceFileIDs,
		RawContent:        prev.RawContent,
		CuratedContent:    prev.CuratedContent,
		AddedContent:      prev.AddedContent,
		UserNotes:         prev.UserNotes,
		ExcludedSections:  prev.ExcludedSections,
		ContentTags:       prev.ContentTags,
		Status:            model.DatasetInProgress,
		PreviousDatasetID: prev.DatasetID,
	}
	if err := s.datasets.Create(ctx, clone); err != nil {
		return nil, err
	}

	log.Infof("[Curation] dataset %s revised as %s", prev.DatasetID, clone.DatasetID)
	return view(clone), nil
}
