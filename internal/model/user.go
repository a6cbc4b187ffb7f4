package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint               `gorm:"primarykey" json:"id"`
	Email        string             `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash string             `json:"-" gorm:"not null"`
	Name         string             `json:"name"`
	IsPremium    bool               `json:"is_premium" gorm:"default:false"`
	Sessions     []InterviewSession `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ChatMessages []ChatMessage      `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Subscription *Subscription      `json:"subscription,omitempty" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	DeletedAt    gorm.DeletedAt     `gorm:"index" json:"-"`
}
