package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPastDue  = "past_due"
)

// Subscription mirrors the payment provider's view of a user's plan.
// Rows are only ever written by the billing webhook relay.
type Subscription struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	UserID           uint           `json:"user_id" gorm:"not null;uniqueIndex"`
	CustomerID       string         `json:"customer_id" gorm:"index"`
	SubscriptionID   string         `json:"subscription_id" gorm:"index"`
	Status           string         `json:"status" gorm:"not null;default:'active'"`
	CurrentPeriodEnd *time.Time     `json:"current_period_end,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing
}
