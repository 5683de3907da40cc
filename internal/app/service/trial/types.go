package trial

import (
	"context"
	"errors"
	"time"

	"github.com/macroflow/trialgate/internal/models"
	"github.com/macroflow/trialgate/pkg/types"
)

var (
	// ErrNotRegistered is returned when the fingerprint has no trial record.
	ErrNotRegistered = errors.New("device not registered")
	// ErrInvalidFingerprint is returned for missing or too-short fingerprints.
	ErrInvalidFingerprint = errors.New("invalid device fingerprint")
	// ErrInvalidAction is returned for unknown admin actions or bad parameters.
	ErrInvalidAction = errors.New("invalid admin action")
)

// MinFingerprintLen is the minimum accepted fingerprint length.
const MinFingerprintLen = 10

// Validity is the outcome of a trial validity check. PendingTransition,
// when set, is a state change the check observed but did not persist;
// the caller decides whether to commit it. This keeps the lazy
// active->expired transition an explicit side effect instead of one
// hidden inside a query.
type Validity struct {
	Valid             bool
	Record            *models.DeviceTrial
	RemainingHours    *float64
	PendingTransition *types.TrialStatus
}

type RegisterRequest struct {
	Fingerprint  string
	Email        *string
	AuthProvider types.AuthProvider
	IP           *string
	Country      *string
}

type Action string

const (
	ActionBan         Action = "ban"
	ActionUnban       Action = "unban"
	ActionExtendTrial Action = "extend_trial"
	ActionResetTrial  Action = "reset_trial"
)

type ActionRequest struct {
	Fingerprint string
	Action      Action
	// Hours applies to extend_trial only.
	Hours int
}

type ActionResult struct {
	OK      bool
	Message string
	Record  *models.DeviceTrial
}

type ScanDevicesRequest struct {
	Page   int
	Limit  int
	Status types.TrialStatus
	// Search matches fingerprint or email, case-insensitive substring.
	Search string
}

type ScanDevicesResponse struct {
	Items []*models.DeviceTrial
	Total int64
	Page  int
	Limit int
}

// Manager is the trial store and validity engine surface used by the
// HTTP layer.
type Manager interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.DeviceTrial, error)
	CheckValidity(ctx context.Context, fingerprint string, now time.Time) (*Validity, error)
	ApplyAction(ctx context.Context, req *ActionRequest) (*ActionResult, error)
	ScanDevices(ctx context.Context, req *ScanDevicesRequest) (*ScanDevicesResponse, error)
}
