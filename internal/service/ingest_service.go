// Package service implements the business logic between the HTTP handlers
// and the repositories.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/collector"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/repository"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/unifier"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/log"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/storage"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/tasks"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// BlobStore is the narrow surface the pipeline needs from object storage.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// EnqueueFunc hands a processing task to the queue.
type EnqueueFunc func(ctx context.Context, task tasks.ProcessingTask) error

// UploadRequest carries one file submission.
type UploadRequest struct {
	Data            []byte
	MediaKind       string
	Title           string
	ContextHint     string
	CollectExternal bool
}

// UploadResult reports the outcome of one submission.
type UploadResult struct {
	FileID    string `json:"fileId"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// BatchReport summarizes a bulk submission.
type BatchReport struct {
	BatchID   string        `json:"batchId"`
	Total     int           `json:"total"`
	Accepted  int           `json:"accepted"`
	Duplicate int           `json:"duplicate"`
	Rejected  int           `json:"rejected"`
	Results   []BatchEntry  `json:"results"`
	CreatedAt time.Time     `json:"createdAt"`
}

// BatchEntry is the per-file line of a batch report.
type BatchEntry struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	FileID string `json:"fileId,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// IngestService is the upload gateway: validation, dedup, blob persistence
// and queue handoff.
type IngestService interface {
	Submit(ctx context.Context, req UploadRequest) (*UploadResult, error)
	SubmitBatch(ctx context.Context, reqs []UploadRequest) (*BatchReport, error)
	Status(ctx context.Context, fileID string) (*model.RawFile, error)
	Cancel(ctx context.Context, fileID string) error
	BatchReport(ctx context.Context, batchID string) (*BatchReport, error)
	Collect(ctx context.Context, fileID string) (*model.ProcessedContent, error)
	SupportedMediaKinds() []string
	Close() error
}

type ingestService struct {
	repo      repository.FileRepository
	blobs     BlobStore
	enqueue   EnqueueFunc
	collector collector.Collector
	pool      *ants.Pool
	cfg       config.UploadConfig
}

// NewIngestService creates the upload gateway service. The ants pool bounds
// how many files of a bulk submission are ingested concurrently. coll may be
// nil when external collection is disabled.
func NewIngestService(repo repository.FileRepository, blobs BlobStore, enqueue EnqueueFunc, coll collector.Collector, cfg config.UploadConfig) (IngestService, error) {
	workers := cfg.BulkWorkers
	if workers < 1 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk upload pool: %w", err)
	}
	return &ingestService{repo: repo, blobs: blobs, enqueue: enqueue, collector: coll, pool: pool, cfg: cfg}, nil
}

func (s *ingestService) validate(req UploadRequest) error {
	if len(req.Data) == 0 {
		return errs.Validationf("file is empty")
	}
	if s.cfg.MaxSizeBytes > 0 && int64(len(req.Data)) > s.cfg.MaxSizeBytes {
		return errs.Validationf("file size %d exceeds limit %d", len(req.Data), s.cfg.MaxSizeBytes)
	}
	if !model.IsMediaKind(req.MediaKind) {
		return errs.Validationf("unsupported media kind: %s", req.MediaKind)
	}
	return nil
}

// Submit registers one file. Identical bytes already active in the registry
// return the existing record instead of a new one; a record that failed
// terminally is superseded by a fresh revision so the upload can be retried
// deliberately.
func (s *ingestService) Submit(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	contentHash := model.HashContent(req.Data)

	if existing, err := s.repo.FindActiveByContentHash(ctx, contentHash); err == nil {
		log.Infof("[Gateway] duplicate upload, content hash %s maps to file %s", contentHash, existing.FileID)
		if existing.Status == model.StatusUploaded {
			// The original enqueue may have failed after registration; the
			// re-upload is the uploader's retry, so produce the task again.
			// Duplicate messages are safe under at-least-once delivery.
			if err := s.enqueue(ctx, tasks.ProcessingTask{FileID: existing.FileID, Attempt: 1}); err != nil {
				log.Warnf("[Gateway] failed to re-enqueue queued file %s: %v", existing.FileID, err)
			}
		}
		return &UploadResult{FileID: existing.FileID, Status: existing.Status, Duplicate: true}, nil
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	// Revision 0 uses the canonical id for the bytes. Re-upload after a
	// terminal failure supersedes the dead record and salts a new id so the
	// fresh record cannot collide with the old one.
	revision := 0
	salt := ""
	if prior, err := s.repo.FindLatestByContentHash(ctx, contentHash); err == nil {
		if prior.Active() {
			// A concurrent upload of the same bytes landed between the dedup
			// check and here; treat it as the duplicate it is.
			return &UploadResult{FileID: prior.FileID, Status: prior.Status, Duplicate: true}, nil
		}
		if !prior.Superseded {
			if serr := s.repo.Supersede(ctx, prior.FileID); serr != nil {
				return nil, serr
			}
		}
		revision = prior.Revision + 1
		salt = uuid.NewString()
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	blobKey := storage.BlobKey(contentHash)
	if err := s.blobs.Put(ctx, blobKey, req.Data, "application/octet-stream"); err != nil {
		return nil, fmt.Errorf("failed to persist blob: %w", err)
	}

	file := &model.RawFile{
		FileID:          model.NewFileID(contentHash, salt),
		ContentHash:     contentHash,
		Revision:        revision,
		MediaKind:       req.MediaKind,
		BlobRef:         blobKey,
		Title:           req.Title,
		ContextHint:     req.ContextHint,
		SizeBytes:       int64(len(req.Data)),
		Status:          model.StatusUploaded,
		CollectExternal: req.CollectExternal,
	}

	if err := s.repo.CreateRawFile(ctx, file); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent upload of the same bytes won the insert race;
			// return the winner.
			winner, ferr := s.repo.FindActiveByContentHash(ctx, contentHash)
			if ferr != nil {
				return nil, err
			}
			return &UploadResult{FileID: winner.FileID, Status: winner.Status, Duplicate: true}, nil
		}
		return nil, err
	}

	if err := s.enqueue(ctx, tasks.ProcessingTask{FileID: file.FileID, Attempt: 1}); err != nil {
		// The record stays queued; re-uploading the same bytes produces the
		// task again. Surface the failure so the uploader knows processing
		// has not started.
		log.Errorf("[Gateway] failed to enqueue task for file %s: %v", file.FileID, err)
		return nil, fmt.Errorf("file registered but queueing failed: %w", err)
	}

	log.Infof("[Gateway] file %s registered (kind=%s, size=%d), task enqueued", file.FileID, file.MediaKind, file.SizeBytes)
	return &UploadResult{FileID: file.FileID, Status: file.Status, Duplicate: false}, nil
}

// SubmitBatch ingests files concurrently through the worker pool and stores
// the report in Redis under the returned batch id. Individual failures do
// not abort the batch.
func (s *ingestService) SubmitBatch(ctx context.Context, reqs []UploadRequest) (*BatchReport, error) {
	if len(reqs) == 0 {
		return nil, errs.Validationf("batch contains no files")
	}

	report := &BatchReport{
		BatchID:   uuid.NewString(),
		Total:     len(reqs),
		Results:   make([]BatchEntry, len(reqs)),
		CreatedAt: time.Now().UTC(),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := range reqs {
		i := i
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			entry := BatchEntry{Index: i, Title: reqs[i].Title}

			result, err := s.Submit(ctx, reqs[i])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				entry.Status = "rejected"
				entry.Error = err.Error()
				report.Rejected++
			} else {
				entry.FileID = result.FileID
				if result.Duplicate {
					entry.Status = "duplicate"
					report.Duplicate++
				} else {
					entry.Status = "accepted"
					report.Accepted++
				}
			}
			report.Results[i] = entry
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			report.Results[i] = BatchEntry{Index: i, Title: reqs[i].Title, Status: "rejected", Error: err.Error()}
			report.Rejected++
			mu.Unlock()
		}
	}
	wg.Wait()

	if raw, err := json.Marshal(report); err == nil {
		if err := s.repo.SaveBatchReport(ctx, report.BatchID, raw, 24*time.Hour); err != nil {
			log.Warnf("[Gateway] failed to store batch report %s: %v", report.BatchID, err)
		}
	}

	log.Infof("[Gateway] batch %s finished: %d accepted, %d duplicate, %d rejected",
		report.BatchID, report.Accepted, report.Duplicate, report.Rejected)
	return report, nil
}

func (s *ingestService) Status(ctx context.Context, fileID string) (*model.RawFile, error) {
	return s.repo.FindByID(ctx, fileID)
}

func (s *ingestService) Cancel(ctx context.Context, fileID string) error {
	return s.repo.CancelQueued(ctx, fileID)
}

func (s *ingestService) BatchReport(ctx context.Context, batchID string) (*BatchReport, error) {
	raw, err := s.repo.GetBatchReport(ctx, batchID)
	if err != nil {
		return nil, err
	}
	var report BatchReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to decode batch report: %w", err)
	}
	return &report, nil
}

// Collect re-runs external signal collection for an already-extracted file
// and stores a refreshed content row. The extracted text itself is untouched:
// the stored signals section is stripped and the fresh one appended.
func (s *ingestService) Collect(ctx context.Context, fileID string) (*model.ProcessedContent, error) {
	if s.collector == nil {
		return nil, errs.ErrCollectorUnavailable
	}

	file, err := s.repo.FindByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.Status != model.StatusExtracted {
		return nil, &errs.NotReadyError{FileID: fileID, Status: file.Status}
	}
	if file.ContextHint == "" {
		return nil, errs.Validationf("file %s has no context hint to collect against", fileID)
	}

	content, err := s.repo.CurrentContent(ctx, fileID)
	if err != nil {
		return nil, err
	}

	base := unifier.StripSignals(content.UnifiedText)
	signals, err := s.collector.Collect(ctx, file.ContextHint, base)
	if err != nil {
		return nil, fmt.Errorf("external collection failed for file %s: %w", fileID, err)
	}

	text, confidence := unifier.Apply(base, content.ConfidenceScore, signals)
	refreshed := &model.ProcessedContent{
		Attempt:          content.Attempt,
		UnifiedText:      text,
		ExtractionMethod: content.ExtractionMethod,
		ConfidenceScore:  confidence,
		ExternalSignals:  signals,
	}
	if err := s.repo.RefreshContent(ctx, fileID, refreshed); err != nil {
		return nil, err
	}

	log.Infof("[Gateway] external signals refreshed for file %s (%d signals)", fileID, len(signals))
	return refreshed, nil
}

func (s *ingestService) SupportedMediaKinds() []string {
	return model.MediaKinds
}

// Close releases the bulk upload pool. Submissions after Close are rejected
// by the pool.
func (s *ingestService) Close() error {
	s.pool.Release()
	return nil
}
