package abuse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/macroflow/trialgate/internal/models"
	cfgpkg "github.com/macroflow/trialgate/pkg/config"
	"github.com/macroflow/trialgate/pkg/logctx"
	"github.com/macroflow/trialgate/pkg/tool"
	"github.com/macroflow/trialgate/pkg/types"
)

// Service raises alerts for suspicious registration patterns.
type Service struct {
	cfg *cfgpkg.Config
	log *zap.SugaredLogger
	db  *gorm.DB
}

func New(cfg *cfgpkg.Config, log *zap.SugaredLogger, db *gorm.DB) *Service {
	return &Service{cfg: cfg, log: log, db: db}
}

// CheckSuspiciousIP counts distinct device fingerprints that downloaded
// from ip and raises a medium alert above the configured threshold.
// It runs in the background; failures are logged and dropped.
func (s *Service) CheckSuspiciousIP(ctx context.Context, ip string) {
	if ip == "" {
		return
	}
	go func() {
		if err := s.checkSuspiciousIP(context.WithoutCancel(ctx), ip); err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("suspicious IP check failed: %v", err)
		}
	}()
}

func (s *Service) checkSuspiciousIP(ctx context.Context, ip string) error {
	var deviceCount int64
	if err := s.db.WithContext(ctx).Model(&models.DeviceTrial{}).
		Where("download_ip = ?", ip).
		Distinct("fingerprint").
		Count(&deviceCount).Error; err != nil {
		return fmt.Errorf("failed to count devices for ip: %w", err)
	}

	if !ShouldAlert(deviceCount, int64(s.cfg.Abuse.MaxDevicesPerIP)) {
		return nil
	}

	// dedup: one unresolved alert per IP within the window
	var existing models.AdminAlert
	err := s.db.WithContext(ctx).
		Where("alert_type = ? AND resolved = false AND created_at >= ? AND details->>'ip' = ?",
			types.AlertTypeMultipleDevicesSameIP, time.Now().Add(-s.cfg.Abuse.AlertWindow()), ip).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check existing alerts: %w", err)
	}

	alert := &models.AdminAlert{
		ID:        tool.GenerateUUIDV7(),
		AlertType: types.AlertTypeMultipleDevicesSameIP,
		Severity:  types.AlertSeverityMedium,
		Details: datatypes.JSONMap{
			"ip":           ip,
			"device_count": deviceCount,
		},
	}
	if err := s.db.WithContext(ctx).Create(alert).Error; err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Warnw("multiple devices registered from one IP",
		"ip", ip, "device_count", deviceCount)
	return nil
}

// ShouldAlert reports whether a distinct device count crosses the
// per-IP threshold.
func ShouldAlert(deviceCount, maxDevicesPerIP int64) bool {
	return maxDevicesPerIP > 0 && deviceCount > maxDevicesPerIP
}
