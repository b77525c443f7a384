package models

import "time"

const (
	SyncRunStatusQueued  = "queued"
	SyncRunStatusRunning = "running"
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusPartial = "partial"
)

const (
	SyncTriggeredManual = "manual"
	SyncTriggeredSystem = "system"
)

// ReferenceSyncRun records one execution of the NCM table refresh.
// Reference data is shared, so runs are not owner-scoped.
type ReferenceSyncRun struct {
	ID            uint       `gorm:"primary_key" json:"id"`
	Source        string     `gorm:"size:50" json:"source"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	Processed     int        `json:"processed"`
	Inserted      int        `json:"inserted"`
	FailedBatches int        `json:"failed_batches"`
	Message       string     `gorm:"type:text" json:"message"`
	CorrelationId string     `gorm:"size:64" json:"correlation_id"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ReferenceSyncError is one absorbed failure inside a run, usually a batch
// that could not be written. The run keeps going past these.
type ReferenceSyncError struct {
	ID         uint      `gorm:"primary_key" json:"id"`
	SyncRunId  uint      `gorm:"index;not null" json:"sync_run_id"`
	BatchIndex int       `json:"batch_index"`
	ErrorCode  string    `gorm:"size:64" json:"error_code"`
	Message    string    `gorm:"type:text" json:"message"`
	Retryable  bool      `gorm:"default:false" json:"retryable"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
