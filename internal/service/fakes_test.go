package service

import (
	"context"
	"sync"
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"gorm.io/gorm"
)

// fakeFileRepo is an in-memory FileRepository with the same conditional
// update semantics as the MySQL implementation.
type fakeFileRepo struct {
	mu       sync.Mutex
	files    map[string]*model.RawFile
	contents map[string]*model.ProcessedContent
	reports  map[string][]byte
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{
		files:    make(map[string]*model.RawFile),
		contents: make(map[string]*model.ProcessedContent),
		reports:  make(map[string][]byte),
	}
}

func (r *fakeFileRepo) CreateRawFile(_ context.Context, file *model.RawFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.ContentHash == file.ContentHash && f.Revision == file.Revision {
			return gorm.ErrDuplicatedKey
		}
	}
	clone := *file
	r.files[file.FileID] = &clone
	return nil
}

func (r *fakeFileRepo) FindByID(_ context.Context, fileID string) (*model.RawFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[fileID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	clone := *file
	return &clone, nil
}

func (r *fakeFileRepo) FindActiveByContentHash(_ context.Context, contentHash string) (*model.RawFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *model.RawFile
	for _, f := range r.files {
		if f.ContentHash == contentHash && f.Active() {
			if best == nil || f.Revision > best.Revision {
				best = f
			}
		}
	}
	if best == nil {
		return nil, errs.ErrNotFound
	}
	clone := *best
	return &clone, nil
}

func (r *fakeFileRepo) FindLatestByContentHash(_ context.Context, contentHash string) (*model.RawFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *model.RawFile
	for _, f := range r.files {
		if f.ContentHash == contentHash {
			if best == nil || f.Revision > best.Revision {
				best = f
			}
		}
	}
	if best == nil {
		return nil, errs.ErrNotFound
	}
	clone := *best
	return &clone, nil
}

func (r *fakeFileRepo) Supersede(_ context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.files[fileID]; ok {
		f.Superseded = true
	}
	return nil
}

func (r *fakeFileRepo) AcquireLease(_ context.Context, fileID, owner, token string, ttl time.Duration) (*model.RawFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok {
		return nil, errs.ErrNotFound
	}

	now := time.Now()
	leaseFree := f.LeaseExpires == nil || f.LeaseExpires.Before(now)
	dueNow := f.NextAttemptAt == nil || !f.NextAttemptAt.After(now)
	claimable := (f.Status == model.StatusUploaded || f.Status == model.StatusFailedRetryable) && leaseFree && dueNow ||
		f.Status == model.StatusProcessing && f.LeaseExpires != nil && f.LeaseExpires.Before(now)
	if !claimable {
		return nil, errs.ErrLeaseConflict
	}

	expires := now.Add(ttl)
	f.Status = model.StatusProcessing
	f.LeaseOwner = owner
	f.LeaseToken = token
	f.LeaseExpires = &expires
	f.AttemptCount++
	clone := *f
	return &clone, nil
}

func (r *fakeFileRepo) releaseWith(fileID, token, status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.LeaseToken != token {
		return errs.ErrLeaseConflict
	}
	f.Status = status
	f.LeaseOwner = ""
	f.LeaseToken = ""
	f.LeaseExpires = nil
	f.LastError = reason
	f.NextAttemptAt = nil
	return nil
}

func (r *fakeFileRepo) MarkRetryable(_ context.Context, fileID, token, reason string, nextAttempt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.LeaseToken != token {
		return errs.ErrLeaseConflict
	}
	f.Status = model.StatusFailedRetryable
	f.LeaseOwner = ""
	f.LeaseToken = ""
	f.LeaseExpires = nil
	f.LastError = reason
	f.NextAttemptAt = &nextAttempt
	return nil
}

func (r *fakeFileRepo) MarkTerminal(_ context.Context, fileID, token, reason string) error {
	return r.releaseWith(fileID, token, model.StatusFailedTerminal, reason)
}

func (r *fakeFileRepo) CancelQueued(_ context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok {
		return errs.ErrNotFound
	}
	if f.Status != model.StatusUploaded && f.Status != model.StatusFailedRetryable {
		return errs.Validationf("file cannot be cancelled in status %s", f.Status)
	}
	f.Status = model.StatusFailedTerminal
	f.LastError = "cancelled by uploader"
	return nil
}

func (r *fakeFileRepo) CompleteExtraction(_ context.Context, fileID, token string, content *model.ProcessedContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok || f.LeaseToken != token || f.Status != model.StatusProcessing {
		return errs.ErrLeaseConflict
	}
	f.Status = model.StatusExtracted
	f.LeaseOwner = ""
	f.LeaseToken = ""
	f.LeaseExpires = nil
	f.LastError = ""
	f.NextAttemptAt = nil

	clone := *content
	clone.FileID = fileID
	clone.Current = true
	r.contents[fileID] = &clone
	return nil
}

func (r *fakeFileRepo) RefreshContent(_ context.Context, fileID string, content *model.ProcessedContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok {
		return errs.ErrNotFound
	}
	if f.Status != model.StatusExtracted {
		return &errs.NotReadyError{FileID: fileID, Status: f.Status}
	}
	clone := *content
	clone.FileID = fileID
	clone.Current = true
	r.contents[fileID] = &clone
	return nil
}

func (r *fakeFileRepo) CurrentContent(_ context.Context, fileID string) (*model.ProcessedContent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, ok := r.contents[fileID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	clone := *content
	return &clone, nil
}

func (r *fakeFileRepo) SaveBatchReport(_ context.Context, batchID string, report []byte, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[batchID] = report
	return nil
}

func (r *fakeFileRepo) GetBatchReport(_ context.Context, batchID string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.reports[batchID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return report, nil
}

// addExtracted seeds an extracted file with current content, bypassing the
// pipeline.
func (r *fakeFileRepo) addExtracted(fileID, title, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[fileID] = &model.RawFile{
		FileID:      fileID,
		ContentHash: "hash-" + fileID,
		Title:       title,
		ContextHint: title,
		MediaKind:   model.MediaDocument,
		Status:      model.StatusExtracted,
	}
	r.contents[fileID] = &model.ProcessedContent{
		FileID:           fileID,
		UnifiedText:      text,
		ExtractionMethod: "native",
		ConfidenceScore:  1.0,
		Current:          true,
	}
}

// fakeDatasetRepo is an in-memory DatasetRepository.
type fakeDatasetRepo struct {
	mu       sync.Mutex
	datasets map[string]*model.CuratedDataset
}

func newFakeDatasetRepo() *fakeDatasetRepo {
	return &fakeDatasetRepo{datasets: make(map[string]*model.CuratedDataset)}
}

func (r *fakeDatasetRepo) Create(_ context.Context, dataset *model.CuratedDataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *dataset
	r.datasets[dataset.DatasetID] = &clone
	return nil
}

func (r *fakeDatasetRepo) FindByID(_ context.Context, datasetID string) (*model.CuratedDataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dataset, ok := r.datasets[datasetID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	clone := *dataset
	return &clone, nil
}

func (r *fakeDatasetRepo) List(_ context.Context, status string, limit int) ([]model.CuratedDataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []model.CuratedDataset
	for _, d := range r.datasets {
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, *d)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeDatasetRepo) UpdateCuration(_ context.Context, dataset *model.CuratedDataset) error {
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

func (r *fakeDatasetRepo) Approve(_ context.Context, datasetID string, when time.Time) (bool, error) {
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

// fakeBlobs is an in-memory BlobStore.
type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.objects[key]; exists {
		return nil
	}
	b.objects[key] = data
	return nil
}

func (b *fakeBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return data, nil
}
