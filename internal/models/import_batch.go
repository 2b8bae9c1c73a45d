package models

import (
	"time"
)

// Import source values
const (
	ImportSourceCSV  = "csv"
	ImportSourceXLSX = "xlsx"
)

// ImportBatch is the audit record of a single ingestion run. It is
// written once after the run finishes and never mutated. Pre-flight
// mapping failures abort before any batch row exists.
type ImportBatch struct {
	ID          string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	WorkspaceID string `json:"workspace_id" gorm:"not null;index;type:uuid"`
	FileName    string `json:"file_name" gorm:"type:varchar(500)"`
	Source      string `json:"source" gorm:"type:varchar(10);not null;default:'csv'"` // csv, xlsx

	Mapping JSON `json:"mapping" gorm:"type:jsonb"` // field -> column index used for the run

	TotalRows     int         `json:"total_rows" gorm:"default:0"`
	SucceededRows int         `json:"succeeded_rows" gorm:"default:0"`
	FailedRows    int         `json:"failed_rows" gorm:"default:0"`
	Errors        StringArray `json:"errors" gorm:"type:jsonb"`

	SegmentID *string `json:"segment_id,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ImportBatch model
func (ImportBatch) TableName() string {
	return "import_batches"
}

// ImportRequest represents one import run. Mapping overrides the
// detected column assignment when present (field name -> 0-based
// column index).
type ImportRequest struct {
	FileName  string         `json:"file_name"`
	Content   string         `json:"content" binding:"required"` // raw CSV text
	Mapping   map[string]int `json:"mapping"`
	SegmentID *string        `json:"segment_id"`
}

// ImportPreviewRequest asks for column detection without writing anything
type ImportPreviewRequest struct {
	Content string `json:"content" binding:"required"`
}

// ImportPreviewResponse carries the detected mapping and a data sample
type ImportPreviewResponse struct {
	Headers       []string       `json:"headers"`
	Mapping       map[string]int `json:"mapping"`
	MissingFields []string       `json:"missing_fields"`
	SampleRows    [][]string     `json:"sample_rows"`
	TotalRows     int            `json:"total_rows"`
}

// ImportResult summarizes a completed import run
type ImportResult struct {
	BatchID   string   `json:"batch_id"`
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}
