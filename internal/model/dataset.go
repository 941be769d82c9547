package model

import "time"

// CuratedDataset curation states. ready_for_ai is terminal for a revision:
// it can only be reached through an explicit approval and the record is
// immutable afterwards.
const (
	DatasetInProgress = "in_progress"
	DatasetCompleted  = "completed"
	DatasetReadyForAI = "ready_for_ai"
)

// CuratedDataset is the ORM model for the curated_datasets table: a
// human-reviewed aggregation of one or more processed files.
type CuratedDataset struct {
	DatasetID   string `gorm:"primaryKey;type:varchar(36)" json:"datasetId"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	SourceFileIDs StringList `gorm:"type:json;not null" json:"sourceFileIds"`

	RawContent     string `gorm:"type:longtext" json:"rawContent"`
	CuratedContent string `gorm:"type:longtext" json:"curatedContent"`
	AddedContent   string `gorm:"type:longtext" json:"addedContent"`
	UserNotes      string `gorm:"type:text" json:"userNotes"`

	ExcludedSections StringList `gorm:"type:json" json:"excludedSections"`
	ContentTags      StringList `gorm:"type:json" json:"contentTags"`

	Status string `gorm:"type:varchar(20);not null;default:'in_progress';index" json:"status"`

	// Revision chain: edits after approval create a new dataset pointing
	// back at the approved one, never an in-place mutation.
	PreviousDatasetID string `gorm:"type:varchar(36)" json:"previousDatasetId,omitempty"`

	ApprovedAt *time.Time `gorm:"default:null" json:"approvedAt,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName names the table for this model.
func (CuratedDataset) TableName() string {
	return "curated_datasets"
}

// Progress scores how far curation has moved, 0.0 to 1.0.
func (d *CuratedDataset) Progress() float64 {
	progress := 0.0
	if d.CuratedContent != "" {
		progress += 0.4
	}
	if d.AddedContent != "" {
		progress += 0.2
	}
	if len(d.ExcludedSections) > 0 {
		progress += 0.2
	}
	if d.UserNotes != "" {
		progress += 0.1
	}
	if len(d.ContentTags) > 0 {
		progress += 0.1
	}
	if progress > 1.0 {
		progress = 1.0
	}
	return progress
}
