package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/macroflow/trialgate/pkg/types"
)

// AdminAlert is an append-only alert record. Resolved is the only
// mutable field (false -> true, manually or by aging).
type AdminAlert struct {
	ID          string              `gorm:"column:id;type:uuid;primary_key" json:"id"`
	AlertType   types.AlertType     `gorm:"column:alert_type;type:varchar(64);not null;index" json:"alert_type"`
	Fingerprint *string             `gorm:"column:fingerprint;type:varchar(128);default:null" json:"fingerprint"`
	Severity    types.AlertSeverity `gorm:"column:severity;type:varchar(16);not null" json:"severity"`
	Details     datatypes.JSONMap   `gorm:"column:details;type:jsonb;default:'{}'" json:"details"`
	Resolved    bool                `gorm:"column:resolved;not null;default:false;index" json:"resolved"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (AdminAlert) TableName() string {
	return "admin_alert"
}
