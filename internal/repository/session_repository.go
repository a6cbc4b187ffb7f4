package repository

import (
	"github.com/nxquan/prepmate/internal/model"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(session *model.InterviewSession) error
	// FindByIDAndUser scopes the read by owner; a session belonging to
	// another user is indistinguishable from a missing one.
	FindByIDAndUser(id uint, userID uint) (*model.InterviewSession, error)
	FindAllByUser(userID uint) ([]model.InterviewSession, error)
	Update(session *model.InterviewSession) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *model.InterviewSession) error {
	return r.db.Create(session).Error
}

func (r *sessionRepository) FindByIDAndUser(id uint, userID uint) (*model.InterviewSession, error) {
	var session model.InterviewSession
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindAllByUser(userID uint) ([]model.InterviewSession, error) {
	var sessions []model.InterviewSession
	if err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) Update(session *model.InterviewSession) error {
	return r.db.Save(session).Error
}
