package model

// ContentDocument is the document shape indexed into Elasticsearch after a
// successful extraction, one per file.
type ContentDocument struct {
	FileID           string  `json:"file_id"`
	ContentHash      string  `json:"content_hash"`
	MediaKind        string  `json:"media_kind"`
	Title            string  `json:"title"`
	UnifiedText      string  `json:"unified_text"`
	ExtractionMethod string  `json:"extraction_method"`
	ConfidenceScore  float64 `json:"confidence_score"`
}

// SearchHit is a single full-text search result returned to the client.
type SearchHit struct {
	FileID    string  `json:"fileId"`
	Title     string  `json:"title"`
	MediaKind string  `json:"mediaKind"`
	Snippet   string  `json:"snippet"`
	Score     float64 `json:"score"`
}
