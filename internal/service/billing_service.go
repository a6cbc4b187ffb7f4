package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nxquan/prepmate/internal/dto"
	"github.com/nxquan/prepmate/internal/model"
	"github.com/nxquan/prepmate/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionUpdated = "customer.subscription.updated"
	eventSubscriptionDeleted = "customer.subscription.deleted"
)

// BillingService synchronizes subscription state from payment provider
// webhook events. Events referencing unknown users or customers are logged
// and dropped; the provider retries on non-2xx, so only persistence errors
// surface.
type BillingService interface {
	HandleEvent(event dto.WebhookEvent) error
}

type billingService struct {
	userRepo repository.UserRepository
	subRepo  repository.SubscriptionRepository
}

func NewBillingService(userRepo repository.UserRepository, subRepo repository.SubscriptionRepository) BillingService {
	return &billingService{userRepo: userRepo, subRepo: subRepo}
}

func (s *billingService) HandleEvent(event dto.WebhookEvent) error {
	switch event.Type {
	case eventCheckoutCompleted:
		return s.handleCheckoutCompleted(event.Data.Object)
	case eventSubscriptionUpdated:
		return s.handleSubscriptionUpdated(event.Data.Object)
	case eventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(event.Data.Object)
	default:
		log.Debug().Str("type", event.Type).Msg("Ignoring unhandled billing event type")
		return nil
	}
}

func (s *billingService) handleCheckoutCompleted(object dto.WebhookObject) error {
	userID, err := strconv.ParseUint(object.ClientReferenceID, 10, 32)
	if err != nil {
		log.Warn().Str("client_reference_id", object.ClientReferenceID).Msg("Checkout event without a usable user reference, dropping")
		return nil
	}

	user, err := s.userRepo.FindByID(uint(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Uint64("userID", userID).Msg("Checkout event for unknown user, dropping")
			return nil
		}
		return fmt.Errorf("failed to load user for checkout event: %w", err)
	}

	sub, err := s.subRepo.FindByUserID(user.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load subscription: %w", err)
		}
		sub = &model.Subscription{UserID: user.ID}
	}
	sub.CustomerID = object.Customer
	sub.SubscriptionID = object.Subscription
	sub.Status = model.SubscriptionStatusActive
	if err := s.subRepo.Save(sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	user.IsPremium = true
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update premium flag: %w", err)
	}

	log.Info().Uint("userID", user.ID).Str("customer", object.Customer).Msg("Subscription activated from checkout")
	return nil
}

func (s *billingService) handleSubscriptionUpdated(object dto.WebhookObject) error {
	sub, err := s.subRepo.FindByCustomerID(object.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Str("customer", object.Customer).Msg("Subscription update for unknown customer, dropping")
			return nil
		}
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	if object.Status != "" {
		sub.Status = object.Status
	}
	if object.ID != "" {
		sub.SubscriptionID = object.ID
	}
	if object.CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(object.CurrentPeriodEnd, 0)
		sub.CurrentPeriodEnd = &periodEnd
	}
	if err := s.subRepo.Save(sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	return s.syncPremiumFlag(sub)
}

func (s *billingService) handleSubscriptionDeleted(object dto.WebhookObject) error {
	sub, err := s.subRepo.FindByCustomerID(object.Customer)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Str("customer", object.Customer).Msg("Subscription deletion for unknown customer, dropping")
			return nil
		}
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	sub.Status = model.SubscriptionStatusCanceled
	if err := s.subRepo.Save(sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}

	return s.syncPremiumFlag(sub)
}

func (s *billingService) syncPremiumFlag(sub *model.Subscription) error {
	user, err := s.userRepo.FindByID(sub.UserID)
	if err != nil {
		return fmt.Errorf("failed to load subscription owner: %w", err)
	}
	if user.IsPremium == sub.IsActive() {
		return nil
	}
	user.IsPremium = sub.IsActive()
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update premium flag: %w", err)
	}
	log.Info().Uint("userID", user.ID).Bool("premium", user.IsPremium).Str("status", sub.Status).Msg("Premium flag synced from billing event")
	return nil
}
