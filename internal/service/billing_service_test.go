package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/nxquan/prepmate/internal/dto"
	"github.com/nxquan/prepmate/internal/model"
	"github.com/nxquan/prepmate/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBillingFixture(t *testing.T) (BillingService, *gorm.DB, *model.User) {
	t.Helper()
	db := newTestDB(t)
	svc := NewBillingService(repository.NewUserRepository(db), repository.NewSubscriptionRepository(db))
	user := createTestUser(t, db, "payer@example.com")
	return svc, db, user
}

func checkoutEvent(userID uint) dto.WebhookEvent {
	return dto.WebhookEvent{
		ID:   "evt_1",
		Type: "checkout.session.completed",
		Data: dto.WebhookEventData{Object: dto.WebhookObject{
			Customer:          "cus_123",
			Subscription:      "sub_123",
			ClientReferenceID: fmt.Sprintf("%d", userID),
		}},
	}
}

func TestCheckoutCompletedActivatesSubscription(t *testing.T) {
	svc, db, user := newBillingFixture(t)

	require.NoError(t, svc.HandleEvent(checkoutEvent(user.ID)))

	var sub model.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	assert.Equal(t, "cus_123", sub.CustomerID)
	assert.Equal(t, "sub_123", sub.SubscriptionID)
	assert.Equal(t, model.SubscriptionStatusActive, sub.Status)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.True(t, reloaded.IsPremium)
}

func TestCheckoutCompletedIsIdempotent(t *testing.T) {
	svc, db, user := newBillingFixture(t)

	require.NoError(t, svc.HandleEvent(checkoutEvent(user.ID)))
	require.NoError(t, svc.HandleEvent(checkoutEvent(user.ID)))

	var count int64
	require.NoError(t, db.Model(&model.Subscription{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSubscriptionUpdatedSyncsStatusAndPeriodEnd(t *testing.T) {
	svc, db, user := newBillingFixture(t)
	require.NoError(t, svc.HandleEvent(checkoutEvent(user.ID)))

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	require.NoError(t, svc.HandleEvent(dto.WebhookEvent{
		ID:   "evt_2",
		Type: "customer.subscription.updated",
		Data: dto.WebhookEventData{Object: dto.WebhookObject{
			ID:               "sub_456",
			Customer:         "cus_123",
			Status:           model.SubscriptionStatusPastDue,
			CurrentPeriodEnd: periodEnd,
		}},
	}))

	var sub model.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	assert.Equal(t, model.SubscriptionStatusPastDue, sub.Status)
	assert.Equal(t, "sub_456", sub.SubscriptionID)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, periodEnd, sub.CurrentPeriodEnd.Unix())

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.False(t, reloaded.IsPremium)
}

func TestSubscriptionDeletedRevokesPremium(t *testing.T) {
	svc, db, user := newBillingFixture(t)
	require.NoError(t, svc.HandleEvent(checkoutEvent(user.ID)))

	require.NoError(t, svc.HandleEvent(dto.WebhookEvent{
		ID:   "evt_3",
		Type: "customer.subscription.deleted",
		Data: dto.WebhookEventData{Object: dto.WebhookObject{Customer: "cus_123"}},
	}))

	var sub model.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	assert.Equal(t, model.SubscriptionStatusCanceled, sub.Status)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.False(t, reloaded.IsPremium)
}

func TestUnknownReferencesAreDropped(t *testing.T) {
	svc, _, _ := newBillingFixture(t)

	// Unknown user id, unknown customer, unhandled type: all acknowledged
	// so the provider does not retry forever.
	assert.NoError(t, svc.HandleEvent(dto.WebhookEvent{
		Type: "checkout.session.completed",
		Data: dto.WebhookEventData{Object: dto.WebhookObject{ClientReferenceID: "99999", Customer: "cus_x"}},
	}))
	assert.NoError(t, svc.HandleEvent(dto.WebhookEvent{
		Type: "checkout.session.completed",
		Data: dto.WebhookEventData{Object: dto.WebhookObject{ClientReferenceID: "not-a-number"}},
	}))
	assert.NoError(t, svc.HandleEvent(dto.WebhookEvent{
		Type: "customer.subscription.updated",
		Data: dto.WebhookEventData{Object: dto.WebhookObject{Customer: "cus_unknown"}},
	}))
	assert.NoError(t, svc.HandleEvent(dto.WebhookEvent{Type: "invoice.paid"}))
}
