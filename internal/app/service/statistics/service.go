package statistics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/macroflow/trialgate/internal/app/service/events"
	"github.com/macroflow/trialgate/internal/app/service/newsletter"
	"github.com/macroflow/trialgate/internal/models"
	cfgpkg "github.com/macroflow/trialgate/pkg/config"
	"github.com/macroflow/trialgate/pkg/logctx"
	"github.com/macroflow/trialgate/pkg/types"
)

const (
	topCountriesLimit = 10
	recentEventsLimit = 20
)

type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// DashboardStats is the admin dashboard rollup. Every field is computed
// fresh from the store on each request; nothing is maintained
// incrementally.
type DashboardStats struct {
	TrialsByStatus   map[types.TrialStatus]int64   `json:"trials_by_status"`
	NewsletterCount  int64                         `json:"newsletter_count"`
	DownloadsToday   int64                         `json:"downloads_today"`
	AuthProviders    map[types.AuthProvider]int64  `json:"auth_providers"`
	TopCountries     []CountryCount                `json:"top_countries"`
	RecentEvents     []*models.DeviceEvent         `json:"recent_events"`
	UnresolvedAlerts int64                         `json:"unresolved_alerts"`
}

// RefreshResult reports what the maintenance pass touched.
type RefreshResult struct {
	ExpiredTrials  int64 `json:"expired_trials"`
	PurgedEvents   int64 `json:"purged_events"`
	ResolvedAlerts int64 `json:"resolved_alerts"`
}

// Provider is the statistics surface used by the HTTP layer.
type Provider interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	Refresh(ctx context.Context) (*RefreshResult, error)
}

type Service struct {
	cfg *cfgpkg.Config
	log *zap.SugaredLogger
	db  *gorm.DB
	ev  *events.Service
	nl  *newsletter.Service
}

func New(cfg *cfgpkg.Config, log *zap.SugaredLogger, db *gorm.DB, ev *events.Service, nl *newsletter.Service) Provider {
	return &Service{cfg: cfg, log: log, db: db, ev: ev, nl: nl}
}

type groupCount struct {
	Key   string `gorm:"column:key"`
	Count int64  `gorm:"column:count"`
}

// GetDashboardStats runs the independent rollup queries concurrently;
// each goroutine writes its own field, the first error wins.
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var wg sync.WaitGroup
	errChan := make(chan error, 7)
	run := func(f func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(); err != nil {
				errChan <- err
			}
		}()
	}

	run(func() error {
		var rows []groupCount
		if err := s.db.WithContext(ctx).Model(&models.DeviceTrial{}).
			Select("status as key, count(*) as count").
			Group("status").Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to count trials by status: %w", err)
		}
		stats.TrialsByStatus = lo.SliceToMap(rows, func(r groupCount) (types.TrialStatus, int64) {
			return types.TrialStatus(r.Key), r.Count
		})
		return nil
	})

	run(func() error {
		count, err := s.nl.ActiveCount(ctx)
		if err != nil {
			return err
		}
		stats.NewsletterCount = count
		return nil
	})

	run(func() error {
		startOfDay := time.Now().Truncate(24 * time.Hour)
		count, err := s.ev.CountSince(ctx, []types.EventType{types.EventTypeAnonymousDownload}, startOfDay)
		if err != nil {
			return err
		}
		stats.DownloadsToday = count
		return nil
	})

	run(func() error {
		var rows []groupCount
		if err := s.db.WithContext(ctx).Model(&models.DeviceTrial{}).
			Select("auth_provider as key, count(*) as count").
			Group("auth_provider").Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to count auth providers: %w", err)
		}
		stats.AuthProviders = lo.SliceToMap(rows, func(r groupCount) (types.AuthProvider, int64) {
			return types.AuthProvider(r.Key), r.Count
		})
		return nil
	})

	run(func() error {
		var rows []groupCount
		if err := s.db.WithContext(ctx).Model(&models.DeviceTrial{}).
			Select("country as key, count(*) as count").
			Where("country IS NOT NULL").
			Group("country").
			Order("count desc").
			Limit(topCountriesLimit).
			Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to count countries: %w", err)
		}
		stats.TopCountries = lo.Map(rows, func(r groupCount, _ int) CountryCount {
			return CountryCount{Country: r.Key, Count: r.Count}
		})
		return nil
	})

	run(func() error {
		rows, err := s.ev.Recent(ctx, recentEventsLimit)
		if err != nil {
			return err
		}
		stats.RecentEvents = rows
		return nil
	})

	run(func() error {
		if err := s.db.WithContext(ctx).Model(&models.AdminAlert{}).
			Where("resolved = false").
			Count(&stats.UnresolvedAlerts).Error; err != nil {
			return fmt.Errorf("failed to count unresolved alerts: %w", err)
		}
		return nil
	})

	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// Refresh runs the three maintenance steps. They are independent and
// order-insensitive; a failure in one does not stop the others.
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	now := time.Now()
	result := &RefreshResult{}
	lg := logctx.FromCtx(ctx, s.log)
	var errs []error

	res := s.db.WithContext(ctx).Model(&models.DeviceTrial{}).
		Where("status = ? AND trial_expires <= ?", types.TrialStatusActive, now).
		Update("status", types.TrialStatusExpired)
	if res.Error != nil {
		errs = append(errs, fmt.Errorf("failed to expire overdue trials: %w", res.Error))
	}
	result.ExpiredTrials = res.RowsAffected

	purged, err := s.ev.PurgeOlderThan(ctx, now.AddDate(0, 0, -s.cfg.Trial.EventRetentionDays))
	if err != nil {
		errs = append(errs, err)
	}
	result.PurgedEvents = purged

	res = s.db.WithContext(ctx).Model(&models.AdminAlert{}).
		Where("resolved = false AND severity IN ? AND created_at < ?",
			[]types.AlertSeverity{types.AlertSeverityLow, types.AlertSeverityMedium},
			now.AddDate(0, 0, -s.cfg.Trial.AlertResolveDays)).
		Update("resolved", true)
	if res.Error != nil {
		errs = append(errs, fmt.Errorf("failed to auto-resolve alerts: %w", res.Error))
	}
	result.ResolvedAlerts = res.RowsAffected

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}

	lg.Infow("maintenance refresh completed",
		"expired_trials", result.ExpiredTrials,
		"purged_events", result.PurgedEvents,
		"resolved_alerts", result.ResolvedAlerts)
	return result, nil
}
