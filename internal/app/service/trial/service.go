package trial

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/macroflow/trialgate/internal/app/service/events"
	"github.com/macroflow/trialgate/internal/models"
	cfgpkg "github.com/macroflow/trialgate/pkg/config"
	"github.com/macroflow/trialgate/pkg/logctx"
	"github.com/macroflow/trialgate/pkg/tool"
	"github.com/macroflow/trialgate/pkg/types"
)

type Service struct {
	cfg *cfgpkg.Config
	log *zap.SugaredLogger
	db  *gorm.DB
	ev  *events.Service
}

func NewService(cfg *cfgpkg.Config, log *zap.SugaredLogger, db *gorm.DB, ev *events.Service) Manager {
	return &Service{cfg: cfg, log: log, db: db, ev: ev}
}

func (s *Service) getByFingerprint(ctx context.Context, fingerprint string) (*models.DeviceTrial, error) {
	var record models.DeviceTrial
	err := s.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load device trial: %w", err)
	}
	return &record, nil
}

// Register creates a trial record for a new fingerprint, or returns the
// existing one unchanged. Re-registration never extends the trial
// window; the only thing it may change is the attached email/provider.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*models.DeviceTrial, error) {
	if req == nil || len(req.Fingerprint) < MinFingerprintLen {
		return nil, ErrInvalidFingerprint
	}

	record, err := s.getByFingerprint(ctx, req.Fingerprint)
	if err != nil {
		return nil, err
	}

	if record != nil {
		if updates := planReRegistration(record, req, time.Now()); updates != nil {
			prev := ""
			if record.Email != nil {
				prev = *record.Email
			}
			if err := s.db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to update trial email: %w", err)
			}
			record.Email = req.Email
			if req.AuthProvider != "" {
				record.AuthProvider = req.AuthProvider
			}
			record.EmailUpdatedAt = updates["email_updated_at"].(*time.Time)
			s.ev.AppendAsync(ctx, record.Fingerprint, types.EventTypeEmailUpdated, map[string]interface{}{
				"previous_email": prev,
				"email":          *req.Email,
			})
		}
		return record, nil
	}

	now := time.Now()
	provider := req.AuthProvider
	if provider == "" {
		provider = types.AuthProviderUnknown
	}
	record = &models.DeviceTrial{
		ID:           tool.GenerateUUIDV7(),
		Fingerprint:  req.Fingerprint,
		Status:       types.TrialStatusActive,
		TrialExpires: now.Add(s.cfg.Trial.Duration()),
		Email:        req.Email,
		AuthProvider: provider,
		DownloadIP:   req.IP,
		Country:      req.Country,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create device trial: %w", err)
	}

	details := map[string]interface{}{"trial_expires": record.TrialExpires}
	if req.Email != nil {
		details["email"] = *req.Email
	}
	s.ev.AppendAsync(ctx, record.Fingerprint, types.EventTypeRegistration, details)
	if provider != types.AuthProviderUnknown {
		s.ev.AppendAsync(ctx, record.Fingerprint, types.EventTypeOAuthLogin, map[string]interface{}{
			"provider": string(provider),
		})
	}

	logctx.FromCtx(ctx, s.log).Infow("registered device trial",
		"fingerprint", record.Fingerprint, "trial_expires", record.TrialExpires)
	return record, nil
}

// CheckValidity evaluates the trial at now and commits a pending lazy
// expiry when the evaluation produced one. Concurrent checks may both
// commit; the write targets the same state either way.
func (s *Service) CheckValidity(ctx context.Context, fingerprint string, now time.Time) (*Validity, error) {
	record, err := s.getByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}

	v := Evaluate(record, now)
	if v.PendingTransition != nil {
		if err := s.db.WithContext(ctx).Model(record).
			Update("status", *v.PendingTransition).Error; err != nil {
			return nil, fmt.Errorf("failed to persist trial expiry: %w", err)
		}
		record.Status = *v.PendingTransition
	}

	if record != nil {
		s.ev.AppendAsync(ctx, fingerprint, types.EventTypeTrialCheck, map[string]interface{}{
			"valid":           v.Valid,
			"remaining_hours": *v.RemainingHours,
		})
	}
	return v, nil
}

// ApplyAction executes an administrative device action. Every action is
// audited with a dedicated admin_action event.
func (s *Service) ApplyAction(ctx context.Context, req *ActionRequest) (*ActionResult, error) {
	if req == nil || req.Fingerprint == "" {
		return nil, ErrInvalidFingerprint
	}

	record, err := s.getByFingerprint(ctx, req.Fingerprint)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotRegistered
	}

	plan, err := PlanAction(req.Action, req.Hours, time.Now(), s.cfg.Trial.Duration())
	if err != nil {
		return nil, err
	}
	if !CanTransition(record.Status, plan.Status) {
		return nil, fmt.Errorf("%w: cannot %s a %s trial", ErrInvalidAction, req.Action, record.Status)
	}

	updates := map[string]interface{}{"status": plan.Status}
	if plan.TrialExpires != nil {
		updates["trial_expires"] = *plan.TrialExpires
	}
	if err := s.db.WithContext(ctx).Model(record).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", req.Action, err)
	}
	record.Status = plan.Status
	if plan.TrialExpires != nil {
		record.TrialExpires = *plan.TrialExpires
	}

	if req.Action == ActionBan {
		alert := &models.AdminAlert{
			ID:          tool.GenerateUUIDV7(),
			AlertType:   types.AlertTypeSuspiciousBehavior,
			Fingerprint: &record.Fingerprint,
			Severity:    types.AlertSeverityHigh,
			Details:     datatypes.JSONMap{"reason": "manual_ban_by_admin"},
		}
		if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to create ban alert: %v", err)
		}
	}

	auditDetails := map[string]interface{}{"action": string(req.Action)}
	if req.Action == ActionExtendTrial {
		auditDetails["hours"] = req.Hours
	}
	if err := s.ev.Append(ctx, record.Fingerprint, types.EventTypeAdminAction, auditDetails); err != nil {
		logctx.FromCtx(ctx, s.log).Errorf("failed to audit admin action: %v", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("applied admin device action",
		"fingerprint", record.Fingerprint, "action", req.Action, "status", record.Status)
	return &ActionResult{OK: true, Message: fmt.Sprintf("%s applied", req.Action), Record: record}, nil
}

// ScanDevices implements the paginated admin device listing.
func (s *Service) ScanDevices(ctx context.Context, req *ScanDevicesRequest) (*ScanDevicesResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	req.Page, req.Limit = clampPage(req.Page, req.Limit)

	var filters []*types.CommonFilter
	if req.Status != "" {
		filters = append(filters, &types.CommonFilter{
			Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{string(req.Status)},
		})
	}

	tx := s.db.WithContext(ctx).Model(&models.DeviceTrial{})
	if len(filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd{Filters: filters}}})
	}
	if req.Search != "" {
		like := "%" + req.Search + "%"
		tx = tx.Where("fingerprint ILIKE ? OR email ILIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}

	var rows []*models.DeviceTrial
	if err := tx.Order("created_at desc").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	return &ScanDevicesResponse{Items: rows, Total: total, Page: req.Page, Limit: req.Limit}, nil
}
