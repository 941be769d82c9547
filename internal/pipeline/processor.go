// Package pipeline implements the preprocessing worker: it consumes tasks
// from the queue, claims a lease on the file, runs the extraction chain and
// commits the unified content back to the registry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/collector"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/config"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/extractor"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/repository"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/service"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/unifier"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/log"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/pkg/tasks"
	"github.com/google/uuid"
)

// IndexFunc pushes the unified content of one file into the search index.
type IndexFunc func(ctx context.Context, doc model.ContentDocument) error

// ChainSet resolves the extraction chain for a media kind.
type ChainSet interface {
	ChainFor(kind string) (*extractor.Chain, error)
}

// Processor handles one processing task end to end. It satisfies
// kafka.TaskProcessor: a nil return means the outcome reached the registry.
type Processor struct {
	repo      repository.FileRepository
	blobs     service.BlobStore
	chains    ChainSet
	collector collector.Collector
	index     IndexFunc
	enqueue   service.EnqueueFunc
	workerID  string
	worker    config.WorkerConfig
}

// NewProcessor wires the pipeline worker. collector and index may be nil;
// both are best-effort stages.
func NewProcessor(
	repo repository.FileRepository,
	blobs service.BlobStore,
	chains ChainSet,
	coll collector.Collector,
	index IndexFunc,
	enqueue service.EnqueueFunc,
	workerCfg config.WorkerConfig,
) *Processor {
	return &Processor{
		repo:      repo,
		blobs:     blobs,
		chains:    chains,
		collector: coll,
		index:     index,
		enqueue:   enqueue,
		workerID:  "worker-" + uuid.NewString()[:8],
		worker:    workerCfg,
	}
}

// Process runs one task. Re-delivered tasks for finished or foreign-leased
// files are acknowledged without work, which is what makes at-least-once
// delivery safe.
func (p *Processor) Process(ctx context.Context, task tasks.ProcessingTask) error {
	file, err := p.repo.FindByID(ctx, task.FileID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			log.Warnf("[Pipeline] task for unknown file %s, dropping", task.FileID)
			return nil
		}
		return err
	}

	switch file.Status {
	case model.StatusExtracted, model.StatusFailedTerminal:
		log.Infof("[Pipeline] file %s already %s, dropping redelivered task", file.FileID, file.Status)
		return nil
	}

	// A retry task can arrive before the scheduled attempt time; hold the
	// message until then. The offset stays uncommitted, so a crash during
	// the wait just redelivers the task.
	if file.Status == model.StatusFailedRetryable && file.NextAttemptAt != nil {
		if wait := time.Until(*file.NextAttemptAt); wait > 0 {
			log.Infof("[Pipeline] file %s retryable, holding task %s until next attempt", file.FileID, wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	token := uuid.NewString()
	file, err = p.repo.AcquireLease(ctx, task.FileID, p.workerID, token, p.worker.LeaseTTL)
	if err != nil {
		if errors.Is(err, errs.ErrLeaseConflict) {
			// Another worker is on it; its commit settles the outcome.
			log.Infof("[Pipeline] file %s leased elsewhere, dropping task", task.FileID)
			return nil
		}
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		return err
	}

	log.Infof("[Pipeline] %s leased file %s (attempt %d, kind=%s)", p.workerID, file.FileID, file.AttemptCount, file.MediaKind)

	outcome, err := p.extract(ctx, file)
	if err != nil {
		return p.fail(ctx, file, token, err)
	}

	signals := p.collect(ctx, file, outcome.Text)
	unifiedText, confidence := unifier.Unify(outcome, signals)

	content := &model.ProcessedContent{
		Attempt:          file.AttemptCount,
		UnifiedText:      unifiedText,
		ExtractionMethod: outcome.Method,
		ConfidenceScore:  confidence,
		ExternalSignals:  signals,
	}
	if err := p.repo.CompleteExtraction(ctx, file.FileID, token, content); err != nil {
		if errors.Is(err, errs.ErrLeaseConflict) {
			// Lease expired mid-run and another worker took over; discard.
			log.Warnf("[Pipeline] lost lease on file %s before commit, discarding result", file.FileID)
			return nil
		}
		return fmt.Errorf("failed to commit extraction for %s: %w", file.FileID, err)
	}

	log.Infof("[Pipeline] file %s extracted via %s, confidence %.2f", file.FileID, outcome.Method, confidence)

	if p.index != nil {
		doc := model.ContentDocument{
			FileID:           file.FileID,
			ContentHash:      file.ContentHash,
			MediaKind:        file.MediaKind,
			Title:            file.Title,
			UnifiedText:      unifiedText,
			ExtractionMethod: outcome.Method,
			ConfidenceScore:  confidence,
		}
		if err := p.index(ctx, doc); err != nil {
			// Search is supplemental; the registry commit already happened.
			log.Warnf("[Pipeline] failed to index file %s: %v", file.FileID, err)
		}
	}
	return nil
}

func (p *Processor) extract(ctx context.Context, file *model.RawFile) (*extractor.Outcome, error) {
	data, err := p.blobs.Get(ctx, file.BlobRef)
	if err != nil {
		return nil, errs.Transientf("failed to fetch blob %s: %v", file.BlobRef, err)
	}

	chain, err := p.chains.ChainFor(file.MediaKind)
	if err != nil {
		return nil, err
	}
	return chain.Run(ctx, data, file.Title)
}

// collect gathers external signals when the uploader opted in. Any failure
// degrades to no signals.
func (p *Processor) collect(ctx context.Context, file *model.RawFile, text string) model.JSONMap {
	if !file.CollectExternal || p.collector == nil {
		return nil
	}
	signals, err := p.collector.Collect(ctx, file.ContextHint, text)
	if err != nil {
		log.Warnf("[Pipeline] external collection failed for file %s: %v", file.FileID, err)
		return nil
	}
	return signals
}

// fail routes an extraction error: transient failures below the attempt
// budget go back on the queue with an exponential backoff, everything else
// is terminal. The retry message is produced before the current task is
// acknowledged; if producing fails, the error propagates, the offset stays
// uncommitted, and redelivery tries again. The retry therefore lives in the
// queue, not in a goroutine that dies with the process.
func (p *Processor) fail(ctx context.Context, file *model.RawFile, token string, cause error) error {
	reason := cause.Error()

	if errs.IsTransient(cause) && file.AttemptCount < p.worker.MaxAttempts {
		nextAttempt := time.Now().Add(p.backoff(file.AttemptCount))
		if err := p.repo.MarkRetryable(ctx, file.FileID, token, reason, nextAttempt); err != nil {
			if errors.Is(err, errs.ErrLeaseConflict) {
				return nil
			}
			return err
		}
		if err := p.enqueue(ctx, tasks.ProcessingTask{FileID: file.FileID, Attempt: file.AttemptCount + 1}); err != nil {
			return fmt.Errorf("failed to re-enqueue file %s: %w", file.FileID, err)
		}
		log.Warnf("[Pipeline] file %s failed transiently (attempt %d/%d), retry enqueued for %s: %s",
			file.FileID, file.AttemptCount, p.worker.MaxAttempts, nextAttempt.Format(time.RFC3339), reason)
		return nil
	}

	if err := p.repo.MarkTerminal(ctx, file.FileID, token, reason); err != nil {
		if errors.Is(err, errs.ErrLeaseConflict) {
			return nil
		}
		return err
	}
	log.Errorf("[Pipeline] file %s failed terminally after %d attempts: %s", file.FileID, file.AttemptCount, reason)
	return nil
}

func (p *Processor) backoff(attempt int) time.Duration {
	backoff := p.worker.BackoffBase
	if backoff <= 0 {
		backoff = time.Second
	}
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	return backoff
}
