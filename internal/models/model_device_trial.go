package models

import (
	"time"

	"github.com/macroflow/trialgate/pkg/types"
)

// DeviceTrial stores one trial record per device fingerprint. The
// fingerprint is an opaque client-generated identifier and never changes
// once the row is created.
type DeviceTrial struct {
	ID          string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Fingerprint string            `gorm:"column:fingerprint;type:varchar(128);not null;uniqueIndex" json:"fingerprint"`
	Status      types.TrialStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	// TrialExpires is the end of the trial window. For status=active it is
	// authoritative; a validity check reconciles a past value to expired.
	TrialExpires time.Time          `gorm:"column:trial_expires;not null" json:"trial_expires"`
	Email        *string            `gorm:"column:email;type:varchar(255);default:null" json:"email"`
	AuthProvider types.AuthProvider `gorm:"column:auth_provider;type:varchar(32);not null;default:'unknown'" json:"auth_provider"`
	// EmailUpdatedAt records the last email change after creation.
	EmailUpdatedAt *time.Time `gorm:"column:email_updated_at;default:null" json:"email_updated_at"`
	// DownloadIP and Country are set once at creation.
	DownloadIP *string `gorm:"column:download_ip;type:varchar(64);default:null" json:"download_ip"`
	Country    *string `gorm:"column:country;type:varchar(8);default:null" json:"country"`
	// CreatedAt / UpdatedAt are managed by GORM.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (DeviceTrial) TableName() string {
	return "device_trial"
}

// RemainingHours returns the hours until expiry at now, floored at zero
// and rounded to 2 decimal places.
func (t *DeviceTrial) RemainingHours(now time.Time) float64 {
	if t == nil {
		return 0
	}
	h := t.TrialExpires.Sub(now).Hours()
	if h < 0 {
		return 0
	}
	return float64(int64(h*100+0.5)) / 100
}
