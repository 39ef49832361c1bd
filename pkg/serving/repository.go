package serving

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssessmentLog is the audit record of one computed assessment.
type AssessmentLog struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey;column:id" json:"id"`
	PatientID    string            `gorm:"column:patient_id;index" json:"patient_id,omitempty"`
	ModelName    string            `gorm:"column:model_name" json:"model_name"`
	ModelVersion string            `gorm:"column:model_version" json:"model_version"`
	Layout       string            `gorm:"column:layout" json:"layout"`
	Label        int               `gorm:"column:label" json:"label"`
	Risk         string            `gorm:"column:risk" json:"risk"`
	Probability  float64           `gorm:"column:probability" json:"probability"`
	Input        datatypes.JSONMap `gorm:"column:input" json:"input"`
	Features     datatypes.JSONMap `gorm:"column:features" json:"features"`
	Abnormal     datatypes.JSONMap `gorm:"column:abnormal" json:"abnormal,omitempty"`
	LatencyMs    float64           `gorm:"column:latency_ms" json:"latency_ms"`
	CreatedAt    time.Time         `gorm:"column:created_at;index" json:"created_at"`
}

// TableName overrides gorm naming.
func (AssessmentLog) TableName() string {
	return "assessment_logs"
}

// Repository stores assessment logs in Postgres.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&AssessmentLog{})
}

func (r *Repository) RecordAssessment(ctx context.Context, log *AssessmentLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(log).Error
}

// Recent returns the most recent assessment logs up to limit.
func (r *Repository) Recent(ctx context.Context, limit int) ([]AssessmentLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []AssessmentLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
