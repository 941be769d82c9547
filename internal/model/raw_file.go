// Package model defines the Go structs mapped to database tables.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RawFile processing states.
const (
	StatusUploaded        = "uploaded"
	StatusProcessing      = "processing"
	StatusExtracted       = "extracted"
	StatusFailedRetryable = "failed_retryable"
	StatusFailedTerminal  = "failed_terminal"
)

// Supported media kinds.
const (
	MediaDocument     = "document"
	MediaPresentation = "presentation"
	MediaImage        = "image"
	MediaAudio        = "audio"
	MediaVideo        = "video"
)

// MediaKinds lists every supported media kind.
var MediaKinds = []string{MediaDocument, MediaPresentation, MediaImage, MediaAudio, MediaVideo}

// IsMediaKind reports whether kind is one of the supported media kinds.
func IsMediaKind(kind string) bool {
	for _, k := range MediaKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// RawFile is the ORM model for the raw_files table, one row per uploaded
// blob. Only the worker holding a valid lease may mutate a row in the
// processing state. Rows are never deleted; superseded records are marked.
type RawFile struct {
	FileID      string `gorm:"primaryKey;type:varchar(64)" json:"fileId"`
	ContentHash string `gorm:"type:varchar(64);not null;uniqueIndex:idx_hash_revision" json:"contentHash"`
	Revision    int    `gorm:"not null;default:0;uniqueIndex:idx_hash_revision" json:"revision"`
	MediaKind   string `gorm:"type:varchar(16);not null" json:"mediaKind"`
	BlobRef     string `gorm:"type:varchar(255);not null" json:"blobRef"`
	Title       string `gorm:"type:varchar(255)" json:"title"`
	ContextHint string `gorm:"type:text" json:"contextHint"`
	SizeBytes   int64  `gorm:"not null" json:"sizeBytes"`

	Status          string `gorm:"type:varchar(20);not null;default:'uploaded';index" json:"status"`
	CollectExternal bool   `gorm:"not null;default:false" json:"collectExternal"`
	Superseded      bool   `gorm:"not null;default:false" json:"superseded"`

	LeaseOwner   string     `gorm:"type:varchar(64)" json:"-"`
	LeaseToken   string     `gorm:"type:varchar(36)" json:"-"`
	LeaseExpires *time.Time `gorm:"default:null" json:"-"`

	AttemptCount  int        `gorm:"not null;default:0" json:"attemptCount"`
	LastError     string     `gorm:"type:text" json:"lastError,omitempty"`
	NextAttemptAt *time.Time `gorm:"default:null" json:"nextAttemptAt,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName names the table for this model.
func (RawFile) TableName() string {
	return "raw_files"
}

// Active reports whether this record still blocks re-submission of the same
// bytes: terminal failures and superseded records do not.
func (f *RawFile) Active() bool {
	return !f.Superseded && f.Status != StatusFailedTerminal
}

// NewFileID derives a stable file identifier from the content hash plus an
// upload salt. An empty salt gives the canonical id for the bytes; a fresh
// salt permits intentional re-upload after a terminal failure.
func NewFileID(contentHash, salt string) string {
	sum := sha256.Sum256([]byte(contentHash + ":" + salt))
	return hex.EncodeToString(sum[:])[:32]
}

// HashContent returns the hex SHA-256 digest of the raw bytes.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
