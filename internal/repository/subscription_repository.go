package repository

import (
	"github.com/nxquan/prepmate/internal/model"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	FindByUserID(userID uint) (*model.Subscription, error)
	FindByCustomerID(customerID string) (*model.Subscription, error)
	Save(subscription *model.Subscription) error
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) FindByUserID(userID uint) (*model.Subscription, error) {
	var sub model.Subscription
	if err := r.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByCustomerID(customerID string) (*model.Subscription, error) {
	var sub model.Subscription
	if err := r.db.Where("customer_id = ?", customerID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Save(subscription *model.Subscription) error {
	return r.db.Save(subscription).Error
}
