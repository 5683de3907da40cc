package newsletter

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/macroflow/trialgate/internal/models"
	"github.com/macroflow/trialgate/pkg/tool"
	"github.com/macroflow/trialgate/pkg/types"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Subscribe upserts the subscriber row; a previously unsubscribed email
// becomes active again.
func (s *Service) Subscribe(ctx context.Context, email string) error {
	sub := &models.NewsletterSubscriber{
		ID:     tool.GenerateUUIDV7(),
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Status: types.SubscriberStatusActive,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"status": types.SubscriberStatusActive}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

// Unsubscribe flips the subscriber to unsubscribed. Unknown emails are a
// no-op.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	err := s.db.WithContext(ctx).Model(&models.NewsletterSubscriber{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Update("status", types.SubscriberStatusUnsubscribed).Error
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return nil
}

// ActiveCount returns the number of active subscribers.
func (s *Service) ActiveCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.NewsletterSubscriber{}).
		Where("status = ?", types.SubscriberStatusActive).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return count, nil
}
