package dto

import "time"

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type ChatMessageDTO struct {
	ID        uint      `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
