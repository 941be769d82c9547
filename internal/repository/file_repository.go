// Package repository implements the data access layer over GORM and Redis.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// FileRepository is the registry of record for raw files, their processed
// content and the worker leases that guard them.
type FileRepository interface {
	CreateRawFile(ctx context.Context, file *model.RawFile) error
	FindByID(ctx context.Context, fileID string) (*model.RawFile, error)
	FindActiveByContentHash(ctx context.Context, contentHash string) (*model.RawFile, error)
	FindLatestByContentHash(ctx context.Context, contentHash string) (*model.RawFile, error)
	Supersede(ctx context.Context, fileID string) error

	// AcquireLease atomically claims a file for processing. It succeeds only
	// when the file is claimable: queued or retryable with no live lease, or
	// processing with an expired lease. Returns ErrLeaseConflict when another
	// worker holds a valid lease and ErrNotFound when the file is gone or no
	// longer claimable at all.
	AcquireLease(ctx context.Context, fileID, owner, token string, ttl time.Duration) (*model.RawFile, error)

	// MarkRetryable schedules the next attempt: the row records nextAttempt
	// and AcquireLease refuses the file until that instant passes.
	MarkRetryable(ctx context.Context, fileID, token, reason string, nextAttempt time.Time) error
	MarkTerminal(ctx context.Context, fileID, token, reason string) error
	CancelQueued(ctx context.Context, fileID string) error

	// CompleteExtraction commits a successful extraction: the status flips to
	// extracted and the new content row becomes current, in one transaction
	// guarded by the lease token.
	CompleteExtraction(ctx context.Context, fileID, token string, content *model.ProcessedContent) error
	CurrentContent(ctx context.Context, fileID string) (*model.ProcessedContent, error)

	// RefreshContent replaces the current content row of an extracted file,
	// e.g. after re-running external collection. No lease is involved; the
	// file is past the worker stage.
	RefreshContent(ctx context.Context, fileID string, content *model.ProcessedContent) error

	SaveBatchReport(ctx context.Context, batchID string, report []byte, ttl time.Duration) error
	GetBatchReport(ctx context.Context, batchID string) ([]byte, error)
}

type fileRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewFileRepository creates a FileRepository backed by MySQL and Redis.
func NewFileRepository(db *gorm.DB, rdb *redis.Client) FileRepository {
	return &fileRepository{db: db, rdb: rdb}
}

func (r *fileRepository) CreateRawFile(ctx context.Context, file *model.RawFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *fileRepository) FindByID(ctx context.Context, fileID string) (*model.RawFile, error) {
	var file model.RawFile
	err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// FindActiveByContentHash returns the record that still claims these bytes:
// not superseded and not terminally failed. The unique (hash, revision)
// index keeps candidates rare, so scanning them is cheap.
func (r *fileRepository) FindActiveByContentHash(ctx context.Context, contentHash string) (*model.RawFile, error) {
	var files []model.RawFile
	err := r.db.WithContext(ctx).
		Where("content_hash = ? AND superseded = ? AND status <> ?", contentHash, false, model.StatusFailedTerminal).
		Order("revision DESC").
		Limit(1).
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errs.ErrNotFound
	}
	return &files[0], nil
}

// FindLatestByContentHash returns the highest-revision record for the hash
// regardless of state, so the gateway can supersede a terminal record and
// pick the next revision number.
func (r *fileRepository) FindLatestByContentHash(ctx context.Context, contentHash string) (*model.RawFile, error) {
	var files []model.RawFile
	err := r.db.WithContext(ctx).
		Where("content_hash = ?", contentHash).
		Order("revision DESC").
		Limit(1).
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errs.ErrNotFound
	}
	return &files[0], nil
}

func (r *fileRepository) Supersede(ctx context.Context, fileID string) error {
	return r.db.WithContext(ctx).Model(&model.RawFile{}).
		Where("file_id = ?", fileID).
		Update("superseded", true).Error
}

func (r *fileRepository) AcquireLease(ctx context.Context, fileID, owner, token string, ttl time.Duration) (*model.RawFile, error) {
	now := time.Now()
	expires := now.Add(ttl)

	// Conditional update is the atomicity primitive: only one concurrent
	// worker observes RowsAffected == 1.
	res := r.db.WithContext(ctx).Model(&model.RawFile{}).
		Where("file_id = ?", fileID).
		Where(
			r.db.Where("status IN ? AND (lease_expires IS NULL OR lease_expires < ?) AND (next_attempt_at IS NULL OR next_attempt_at <= ?)",
				[]string{model.StatusUploaded, model.StatusFailedRetryable}, now, now).
				Or("status = ? AND lease_expires < ?", model.StatusProcessing, now),
		).
		Updates(map[string]interface{}{
			"status":        model.StatusProcessing,
			"lease_owner":   owner,
			"lease_token":   token,
			"lease_expires": expires,
			"attempt_count": gorm.Expr("attempt_count + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing file from a live foreign lease.
		if _, err := r.FindByID(ctx, fileID); err != nil {
			return nil, err
		}
		return nil, errs.ErrLeaseConflict
	}
	return r.FindByID(ctx, fileID)
}

// releaseWith moves a leased file to a new status, clearing the lease. The
// token guard means a worker whose lease expired and was stolen cannot
// clobber the thief's state.
func (r *fileRepository) releaseWith(ctx context.Context, fileID, token, status, reason string) error {
	res := r.db.WithContext(ctx).Model(&model.RawFile{}).
		Where("file_id = ? AND lease_token = ?", fileID, token).
		Updates(map[string]interface{}{
			"status":          status,
			"lease_owner":     "",
			"lease_token":     "",
			"lease_expires":   nil,
			"last_error":      reason,
			"next_attempt_at": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrLeaseConflict
	}
	return nil
}

func (r *fileRepository) MarkRetryable(ctx context.Context, fileID, token, reason string, nextAttempt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.RawFile{}).
		Where("file_id = ? AND lease_token = ?", fileID, token).
		Updates(map[string]interface{}{
			"status":          model.StatusFailedRetryable,
			"lease_owner":     "",
			"lease_token":     "",
			"lease_expires":   nil,
			"last_error":      reason,
			"next_attempt_at": nextAttempt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrLeaseConflict
	}
	return nil
}

func (r *fileRepository) MarkTerminal(ctx context.Context, fileID, token, reason string) error {
	return r.releaseWith(ctx, fileID, token, model.StatusFailedTerminal, reason)
}

// CancelQueued terminally fails a file that has not started processing.
// Files already leased or finished are left alone.
func (r *fileRepository) CancelQueued(ctx context.Context, fileID string) error {
	res := r.db.WithContext(ctx).Model(&model.RawFile{}).
		Where("file_id = ? AND status IN ?", fileID, []string{model.StatusUploaded, model.StatusFailedRetryable}).
		Updates(map[string]interface{}{
			"status":     model.StatusFailedTerminal,
			"last_error": "cancelled by uploader",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		file, err := r.FindByID(ctx, fileID)
		if err != nil {
			return err
		}
		return errs.Validationf("file cannot be cancelled in status %s", file.Status)
	}
	return nil
}

func (r *fileRepository) CompleteExtraction(ctx context.Context, fileID, token string, content *model.ProcessedContent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.RawFile{}).
			Where("file_id = ? AND lease_token = ? AND status = ?", fileID, token, model.StatusProcessing).
			Updates(map[string]interface{}{
				"status":          model.StatusExtracted,
				"lease_owner":     "",
				"lease_token":     "",
				"lease_expires":   nil,
				"last_error":      "",
				"next_attempt_at": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.ErrLeaseConflict
		}

		if err := tx.Model(&model.ProcessedContent{}).
			Where("file_id = ? AND current = ?", fileID, true).
			Update("current", false).Error; err != nil {
			return err
		}

		content.FileID = fileID
		content.Current = true
		return tx.Create(content).Error
	})
}

func (r *fileRepository) RefreshContent(ctx context.Context, fileID string, content *model.ProcessedContent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var file model.RawFile
		err := tx.Where("file_id = ?", fileID).First(&file).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFound
		}
		if err != nil {
			return err
		}
		if file.Status != model.StatusExtracted {
			return &errs.NotReadyError{FileID: fileID, Status: file.Status}
		}

		if err := tx.Model(&model.ProcessedContent{}).
			Where("file_id = ? AND current = ?", fileID, true).
			Update("current", false).Error; err != nil {
			return err
		}

		content.FileID = fileID
		content.Current = true
		return tx.Create(content).Error
	})
}

func (r *fileRepository) CurrentContent(ctx context.Context, fileID string) (*model.ProcessedContent, error) {
	var content model.ProcessedContent
	err := r.db.WithContext(ctx).
		Where("file_id = ? AND current = ?", fileID, true).
		First(&content).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func batchReportKey(batchID string) string {
	return fmt.Sprintf("batch:%s", batchID)
}

func (r *fileRepository) SaveBatchReport(ctx context.Context, batchID string, report []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, batchReportKey(batchID), report, ttl).Err()
}

func (r *fileRepository) GetBatchReport(ctx context.Context, batchID string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, batchReportKey(batchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.ErrNotFound
	}
	return data, err
}
