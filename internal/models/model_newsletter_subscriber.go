package models

import (
	"time"

	"github.com/macroflow/trialgate/pkg/types"
)

// NewsletterSubscriber keeps one row per email. Re-subscribing an
// unsubscribed email flips the status back to active.
type NewsletterSubscriber struct {
	ID        string                 `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Email     string                 `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	Status    types.SubscriberStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (NewsletterSubscriber) TableName() string {
	return "newsletter_subscriber"
}
