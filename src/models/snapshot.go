package models

// ErrorDetail attributes one failed chunk write.
type ErrorDetail struct {
	Table           Destination `json:"table"`
	ChunkStartIndex int         `json:"chunk_start_index"`
	ChunkSize       int         `json:"chunk_size"`
	Message         string      `json:"message"`
	Code            string      `json:"code"`
}

// ImportOutcome is returned by every ingestion call. It is never persisted.
type ImportOutcome struct {
	ImportID   string        `json:"import_id"`
	Success    int           `json:"success"`
	Failed     int           `json:"failed"`
	Dropped    int           `json:"dropped"`
	Duplicates int           `json:"duplicates"`
	Warning    string        `json:"warning,omitempty"`
	Errors     []ErrorDetail `json:"errors,omitempty"`
}

// SnapshotSummary is one entry of the snapshot inventory.
type SnapshotSummary struct {
	Date          string `json:"date"`
	RowCount      int    `json:"row_count"`
	FundRows      int    `json:"fund_rows"`
	BenchmarkRows int    `json:"benchmark_rows"`
	Canonical     bool   `json:"canonical"`
}

// ConversionStatus describes how a ConvertToEOM call ended.
type ConversionStatus string

const (
	ConversionCanonical ConversionStatus = "already_canonical"
	ConversionEmpty     ConversionStatus = "nothing_to_move"
	ConversionMoved     ConversionStatus = "moved"
	ConversionMerged    ConversionStatus = "merged"
	// ConversionPartial means rows were copied to the target date but the
	// source date could not be cleared; both dates hold the moved rows.
	ConversionPartial ConversionStatus = "partial"
)

// ConvertResult is the outcome of relocating a snapshot to its month end.
type ConvertResult struct {
	SourceDate string           `json:"source_date"`
	TargetDate string           `json:"target_date"`
	Merged     bool             `json:"merged"`
	Moved      int              `json:"moved"`
	Status     ConversionStatus `json:"status"`
}
