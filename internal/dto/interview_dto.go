package dto

import "time"

// StartSessionInput is the normalized form of the multipart start request.
// Resume extraction happens at the API boundary; the engine only sees text.
type StartSessionInput struct {
	JDText     string
	ResumeText string
	ResumeFile *string
	FocusAreas []string
	Difficulty string
	RoleType   *string
}

type SessionInstructions struct {
	TotalQuestions    int    `json:"total_questions"`
	Difficulty        string `json:"difficulty"`
	EstimatedDuration string `json:"estimated_duration"`
}

type StartSessionResponse struct {
	SessionID    uint                `json:"session_id"`
	Questions    []string            `json:"questions"`
	Instructions SessionInstructions `json:"instructions"`
}

type SubmitAnswerRequest struct {
	SessionID     uint   `json:"session_id" binding:"required"`
	Answer        string `json:"answer" binding:"required"`
	QuestionIndex *int   `json:"question_index" binding:"required"`
}

type AnswerProgress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type SubmitAnswerResponse struct {
	Completed    bool            `json:"completed"`
	NextQuestion *string         `json:"next_question"`
	Progress     *AnswerProgress `json:"progress,omitempty"`
	Feedback     *string         `json:"feedback,omitempty"`
	Score        *int            `json:"score,omitempty"`
}

type SessionDetailDTO struct {
	ID             uint       `json:"id"`
	JDText         string     `json:"jd_text"`
	Difficulty     string     `json:"difficulty"`
	RoleType       *string    `json:"role_type"`
	FocusAreas     []string   `json:"focus_areas"`
	QuestionsAsked []string   `json:"questions_asked"`
	AnswersGiven   []string   `json:"answers_given"`
	Feedback       *string    `json:"feedback"`
	Score          *int       `json:"score"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	IsCompleted    bool       `json:"is_completed"`
}

type SessionSummaryDTO struct {
	ID             uint       `json:"id"`
	Difficulty     string     `json:"difficulty"`
	RoleType       *string    `json:"role_type"`
	TotalQuestions int        `json:"total_questions"`
	AnsweredCount  int        `json:"answered_count"`
	Score          *int       `json:"score"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	IsCompleted    bool       `json:"is_completed"`
}
