package model

import (
	"time"

	"gorm.io/gorm"
)

// InterviewSession is a single mock-interview run. Questions are fixed at
// creation; AnswersGiven is allocated to the same length and filled by
// index, so an empty string means the slot has not been answered yet.
type InterviewSession struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	UserID         uint           `json:"user_id" gorm:"not null;index"`
	JDText         string         `json:"jd_text" gorm:"type:text;not null"`
	ResumeText     string         `json:"resume_text,omitempty" gorm:"type:text"`
	ResumeFile     *string        `json:"resume_file,omitempty"`
	FocusAreas     []string       `json:"focus_areas" gorm:"serializer:json"`
	Difficulty     string         `json:"difficulty" gorm:"not null;default:'intermediate'"`
	RoleType       *string        `json:"role_type,omitempty"`
	QuestionsAsked []string       `json:"questions_asked" gorm:"serializer:json"`
	AnswersGiven   []string       `json:"answers_given" gorm:"serializer:json"`
	Feedback       *string        `json:"feedback,omitempty" gorm:"type:text"`
	Score          *int           `json:"score,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *InterviewSession) IsCompleted() bool {
	return s.CompletedAt != nil
}

// AnsweredCount reports how many answer slots hold a submission.
func (s *InterviewSession) AnsweredCount() int {
	n := 0
	for _, a := range s.AnswersGiven {
		if a != "" {
			n++
		}
	}
	return n
}
