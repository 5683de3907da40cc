package events

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/macroflow/trialgate/internal/models"
	"github.com/macroflow/trialgate/pkg/logctx"
	"github.com/macroflow/trialgate/pkg/tool"
	"github.com/macroflow/trialgate/pkg/types"
)

// Service is the append-only device event log.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Append persists one event. Details are stored as-is without
// interpretation.
func (s *Service) Append(ctx context.Context, fingerprint string, eventType types.EventType, details map[string]interface{}) error {
	ev := &models.DeviceEvent{
		ID:          tool.GenerateUUIDV7(),
		Fingerprint: fingerprint,
		EventType:   eventType,
		Details:     datatypes.JSONMap(details),
		CreatedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("failed to append %s event: %w", eventType, err)
	}
	return nil
}

// AppendAsync persists one event in the background. Failures are logged
// and dropped; event logging never fails a request.
func (s *Service) AppendAsync(ctx context.Context, fingerprint string, eventType types.EventType, details map[string]interface{}) {
	go func() {
		if err := s.Append(context.WithoutCancel(ctx), fingerprint, eventType, details); err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to append event: %v", err)
		}
	}()
}

// Recent returns the n most recent events.
func (s *Service) Recent(ctx context.Context, n int) ([]*models.DeviceEvent, error) {
	if n <= 0 {
		n = 20
	}
	var rows []*models.DeviceEvent
	if err := s.db.WithContext(ctx).Order("created_at desc").Limit(n).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}
	return rows, nil
}

// CountSince counts events of the given types created at or after since.
func (s *Service) CountSince(ctx context.Context, eventTypes []types.EventType, since time.Time) (int64, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.DeviceEvent{}).Where("created_at >= ?", since)
	if len(eventTypes) > 0 {
		q = q.Where("event_type IN ?", eventTypes)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// PurgeOlderThan removes events created before the cutoff and returns the
// number of rows deleted. This is the only path that ever removes events.
func (s *Service) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.DeviceEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge events: %w", res.Error)
	}
	return res.RowsAffected, nil
}
