package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/macroflow/trialgate/pkg/types"
)

// DeviceEvent is an append-only log entry. Fingerprint may be a
// pseudo-fingerprint for anonymous events such as anonymous_download.
// Rows are never mutated; old rows are removed only by retention cleanup.
type DeviceEvent struct {
	ID          string          `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Fingerprint string          `gorm:"column:fingerprint;type:varchar(128);not null;index" json:"fingerprint"`
	EventType   types.EventType `gorm:"column:event_type;type:varchar(32);not null;index" json:"event_type"`
	// Details is an opaque key-value payload stored as-is, never
	// interpreted by the service.
	Details   datatypes.JSONMap `gorm:"column:details;type:jsonb;default:'{}'" json:"details"`
	CreatedAt time.Time         `gorm:"column:created_at;index" json:"created_at"`
}

func (DeviceEvent) TableName() string {
	return "device_event"
}
