package repository

import (
	"github.com/nxquan/prepmate/internal/model"
	"gorm.io/gorm"
)

type ChatRepository interface {
	Create(message *model.ChatMessage) error
	// FindRecentByUser returns the newest messages first, capped at limit.
	FindRecentByUser(userID uint, limit int) ([]model.ChatMessage, error)
	FindAllByUser(userID uint) ([]model.ChatMessage, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(message *model.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *chatRepository) FindRecentByUser(userID uint, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.Where("user_id = ?", userID).Order("created_at desc").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *chatRepository) FindAllByUser(userID uint) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	if err := r.db.Where("user_id = ?", userID).Order("created_at asc").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
