package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/extractor"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memDatasets is an in-memory DatasetRepository for the flow test.
type memDatasets struct {
	mu       sync.Mutex
	datasets map[string]*model.CuratedDataset
}

func (r *memDatasets) Create(_ context.Context, dataset *model.CuratedDataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *dataset
	r.datasets[dataset.DatasetID] = &clone
	return nil
}

func (r *memDatasets) FindByID(_ context.Context, datasetID string) (*model.CuratedDataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dataset, ok := r.datasets[datasetID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	clone := *dataset
	return &clone, nil
}

func (r *memDatasets) List(_ context.Context, _ string, _ int) ([]model.CuratedDataset, error) {
	return nil, nil
}

func (r *memDatasets) UpdateCuration(_ context.Context, dataset *model.CuratedDataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.datasets[dataset.DatasetID]
	if !ok {
		return errs.ErrNotFound
	}
	if existing.Status == model.DatasetReadyForAI {
		return errs.ErrImmutable
	}
	existing.CuratedContent = dataset.CuratedContent
	existing.AddedContent = dataset.AddedContent
	existing.UserNotes = dataset.UserNotes
	existing.ExcludedSections = dataset.ExcludedSections
	existing.ContentTags = dataset.ContentTags
	existing.Status = dataset.Status
	return nil
}

func (r *memDatasets) Approve(_ context.Context, datasetID string, when time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.datasets[datasetID]
	if !ok {
		return false, errs.ErrNotFound
	}
	if existing.Status == model.DatasetReadyForAI {
		return false, nil
	}
	existing.Status = model.DatasetReadyForAI
	existing.ApprovedAt = &when
	return true, nil
}

// TestUploadThroughApprovalFlow walks one document through the whole system:
// upload, queue, extraction, dataset assembly, approval and the final
// analysis-ready text.
func TestUploadThroughApprovalFlow(t *testing.T) {
	ctx := context.Background()

	registry := newFakeRegistry()
	blobs := &memBlobs{objects: make(map[string][]byte)}
	rec := &taskRecorder{}

	ingest, err := service.NewIngestService(registry, blobs, rec.enqueue, nil, config.UploadConfig{MaxSizeBytes: 1 << 20, BulkWorkers: 2})
	require.NoError(t, err)
	defer ingest.Close()

	// Upload registers the file and produces exactly one task.
	result, err := ingest.Submit(ctx, service.UploadRequest{
		Data:      []byte("our startup builds warehouse robots"),
		MediaKind: model.MediaDocument,
		Title:     "deck.pdf",
	})
	require.NoError(t, err)
	require.False(t, result.Duplicate)
	require.Equal(t, 1, rec.count())

	// The worker consumes that task and extracts natively at full confidence.
	strategy := &scriptedStrategy{
		name:   extractor.MethodNative,
		result: &extractor.Result{Text: "our startup builds warehouse robots", Confidence: 1.0},
	}
	chain := extractor.NewChain(model.MediaDocument, 0.6, time.Second, strategy)
	p := NewProcessor(registry, blobs, &singleChainSet{chain: chain}, nil, nil, rec.enqueue,
		config.WorkerConfig{LeaseTTL: time.Minute, MaxAttempts: 3})

	rec.mu.Lock()
	task := rec.tasks[0]
	rec.mu.Unlock()
	require.NoError(t, p.Process(ctx, task))

	file, err := ingest.Status(ctx, result.FileID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusExtracted, file.Status)

	content, err := registry.CurrentContent(ctx, result.FileID)
	require.NoError(t, err)
	assert.Equal(t, extractor.MethodNative, content.ExtractionMethod)
	assert.Equal(t, 1.0, content.ConfidenceScore)

	// Curation assembles the extracted file into a dataset and approves it.
	curation := service.NewCurationService(&memDatasets{datasets: make(map[string]*model.CuratedDataset)}, registry)

	dataset, err := curation.CreateDataset(ctx, "Robotics deal", "first look", []string{result.FileID})
	require.NoError(t, err)
	assert.Equal(t, model.DatasetInProgress, dataset.Status)

	approved, err := curation.Approve(ctx, dataset.DatasetID)
	require.NoError(t, err)
	assert.Equal(t, model.DatasetReadyForAI, approved.Status)

	// The approved text carries the extracted content verbatim and matches
	// the reviewer preview exactly.
	text, err := curation.ApprovedText(ctx, dataset.DatasetID)
	require.NoError(t, err)
	assert.Contains(t, text, "our startup builds warehouse robots")
	assert.Contains(t, text, "=== SOURCE: deck.pdf ===")

	preview, err := curation.Preview(ctx, dataset.DatasetID)
	require.NoError(t, err)
	assert.Equal(t, preview, text)
}
