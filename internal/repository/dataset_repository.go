package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/errs"
	"github.com/Ravi-Dagar021199/AI-Analyst-for-Startups/internal/model"
	"gorm.io/gorm"
)

// DatasetRepository persists curated datasets. Approved datasets are
// immutable at this layer: guarded updates refuse to touch them.
type DatasetRepository interface {
	Create(ctx context.Context, dataset *model.CuratedDataset) error
	FindByID(ctx context.Context, datasetID string) (*model.CuratedDataset, error)
	List(ctx context.Context, status string, limit int) ([]model.CuratedDataset, error)

	// UpdateCuration overwrites the curation fields of a non-approved
	// dataset. Returns ErrImmutable when the dataset is already approved.
	UpdateCuration(ctx context.Context, dataset *model.CuratedDataset) error

	// Approve flips the dataset to ready_for_ai. The returned bool reports
	// whether this call performed the transition; false with a nil error
	// means the dataset was already approved.
	Approve(ctx context.Context, datasetID string, when time.Time) (bool, error)
}

type datasetRepository struct {
	db *gorm.DB
}

// NewDatasetRepository creates a DatasetRepository backed by MySQL.
func NewDatasetRepository(db *gorm.DB) DatasetRepository {
	return &datasetRepository{db: db}
}

func (r *datasetRepository) Create(ctx context.Context, dataset *model.CuratedDataset) error {
	return r.db.WithContext(ctx).Create(dataset).Error
}

func (r *datasetRepository) FindByID(ctx context.Context, datasetID string) (*model.CuratedDataset, error) {
	var dataset model.CuratedDataset
	err := r.db.WithContext(ctx).Where("dataset_id = ?", datasetID).First(&dataset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (r *datasetRepository) List(ctx context.Context, status string, limit int) ([]model.CuratedDataset, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var datasets []model.CuratedDataset
	if err := query.Find(&datasets).Error; err != nil {
		return nil, err
	}
	return datasets, nil
}

func (r *datasetRepository) UpdateCuration(ctx context.Context, dataset *model.CuratedDataset) error {
	res := r.db.WithContext(ctx).Model(&model.CuratedDataset{}).
		Where("dataset_id = ? AND status <> ?", dataset.DatasetID, model.DatasetReadyForAI).
		Updates(map[string]interface{}{
			"curated_content":   dataset.CuratedContent,
			"added_content":     dataset.AddedContent,
			"user_notes":        dataset.UserNotes,
			"excluded_sections": dataset.ExcludedSections,
			"content_tags":      dataset.ContentTags,
			"status":            dataset.Status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindByID(ctx, dataset.DatasetID)
		if err != nil {
			return err
		}
		if existing.Status == model.DatasetReadyForAI {
			return errs.ErrImmutable
		}
		// Row exists and is not approved; the update wrote identical values.
		return nil
	}
	return nil
}

func (r *datasetRepository) Approve(ctx context.Context, datasetID string, when time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CuratedDataset{}).
		Where("dataset_id = ? AND status <> ?", datasetID, model.DatasetReadyForAI).
		Updates(map[string]interface{}{
			"status":      model.DatasetReadyForAI,
			"approved_at": when,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, datasetID); err != nil {
			return false, err
		}
		// Already approved; idempotent.
		return false, nil
	}
	return true, nil
}
