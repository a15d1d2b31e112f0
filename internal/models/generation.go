package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Outcome classes recorded for each turn
const (
	OutcomeOK              = "ok"
	OutcomeClarification   = "clarification"
	OutcomeProfileConflict = "profile_conflict"
	OutcomeSchemaViolation = "schema_violation"
	OutcomeBackendError    = "backend_error"
	OutcomeError           = "error"
)

// GenerationRecord is one ledger row per handled turn. It never stores
// message content.
type GenerationRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	RequestID  string    `gorm:"index" json:"request_id"`
	ClientID   string    `gorm:"index" json:"client_id,omitempty"`
	Endpoint   string    `gorm:"not null" json:"endpoint"`
	Intent     string    `gorm:"index;not null" json:"intent"`
	Calls      int       `json:"calls"`
	Repairs    int       `json:"repairs"`
	LatencyMS  int64     `json:"latency_ms"`
	Outcome    string    `gorm:"index;not null" json:"outcome"`
	StatusCode int       `json:"status_code"`
}

// TableName returns the table name for the GenerationRecord model
func (GenerationRecord) TableName() string {
	return "generation_records"
}

// BeforeCreate assigns an id when none is set
func (r *GenerationRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IntentSummary aggregates ledger rows for one intent
type IntentSummary struct {
	Intent       string  `json:"intent"`
	Turns        int64   `json:"turns"`
	Calls        int64   `json:"calls"`
	Repairs      int64   `json:"repairs"`
	Failures     int64   `json:"failures"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}
