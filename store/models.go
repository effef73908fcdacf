package store

import "time"

// SessionRecord is one finished benchmark session.
type SessionRecord struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Engine      string          `gorm:"not null;index" json:"engine"`
	Profile     string          `gorm:"not null" json:"profile"`
	Strategy    string          `gorm:"not null" json:"strategy"`
	InsertCount int             `gorm:"not null" json:"insert_count"`
	RunCount    int             `gorm:"not null" json:"run_count"`
	BatchSize   int             `json:"batch_size"`
	Seed        int64           `json:"seed"`
	StartedAt   time.Time       `gorm:"not null;index" json:"started_at"`
	DurationMs  float64         `json:"duration_ms"`
	Variants    []VariantRecord `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"variants"`
	CreatedAt   time.Time       `json:"created_at"`
}

// VariantRecord holds the median measurements of one variant.
type VariantRecord struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	SessionID       uint    `gorm:"not null;index" json:"session_id"`
	Name            string  `gorm:"not null" json:"name"`
	Fragmentation   float64 `json:"fragmentation"`
	InsertMs        float64 `json:"insert_ms"`
	SelectSuccessMs float64 `json:"select_success_ms"`
	SelectFailMs    float64 `json:"select_fail_ms"`
	InsertSpread    float64 `json:"insert_spread"`
	Trials          int     `json:"trials"`
}
