package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nxquan/prepmate/internal/dto"
	"github.com/nxquan/prepmate/internal/model"
	"github.com/nxquan/prepmate/internal/repository"
	"github.com/rs/zerolog/log"
)

var ErrAssistantUnavailable = errors.New("chat assistant is currently unavailable")

// chatHistoryWindow caps how much prior conversation is replayed into the
// prompt on each turn.
const chatHistoryWindow = 20

const chatSystemPreamble = "You are a friendly and knowledgeable job-interview preparation coach. " +
	"Help the user with interview practice, resume advice, and career questions. " +
	"Keep answers practical and encouraging."

type ChatService interface {
	SendMessage(userID uint, message string) (*dto.ChatMessageDTO, error)
	History(userID uint) ([]dto.ChatMessageDTO, error)
}

type chatService struct {
	chatRepo repository.ChatRepository
	llm      TextGenerator
}

func NewChatService(chatRepo repository.ChatRepository, llm TextGenerator) ChatService {
	return &chatService{chatRepo: chatRepo, llm: llm}
}

func (s *chatService) SendMessage(userID uint, message string) (*dto.ChatMessageDTO, error) {
	userMessage := model.ChatMessage{
		UserID:  userID,
		Role:    model.ChatRoleUser,
		Content: message,
	}
	if err := s.chatRepo.Create(&userMessage); err != nil {
		return nil, fmt.Errorf("failed to persist chat message: %w", err)
	}

	history, err := s.chatRepo.FindRecentByUser(userID, chatHistoryWindow)
	if err != nil {
		log.Warn().Err(err).Uint("userID", userID).Msg("SendMessage: failed to load chat history, prompting without it")
		history = []model.ChatMessage{userMessage}
	}

	reply, err := s.llm.GenerateText(context.Background(), buildChatPrompt(history))
	if err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("SendMessage: assistant call failed")
		return nil, ErrAssistantUnavailable
	}
	reply = strings.TrimSpace(reply)

	assistantMessage := model.ChatMessage{
		UserID:  userID,
		Role:    model.ChatRoleAssistant,
		Content: reply,
	}
	if err := s.chatRepo.Create(&assistantMessage); err != nil {
		return nil, fmt.Errorf("failed to persist assistant reply: %w", err)
	}

	return chatMessageDTO(&assistantMessage), nil
}

func (s *chatService) History(userID uint) ([]dto.ChatMessageDTO, error) {
	messages, err := s.chatRepo.FindAllByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	dtos := make([]dto.ChatMessageDTO, 0, len(messages))
	for i := range messages {
		dtos = append(dtos, *chatMessageDTO(&messages[i]))
	}
	return dtos, nil
}

// buildChatPrompt renders the preamble plus the transcript in chronological
// order. history arrives newest-first from the repository.
func buildChatPrompt(history []model.ChatMessage) string {
	var sb strings.Builder
	sb.WriteString(chatSystemPreamble)
	sb.WriteString("\n\nConversation so far:\n")
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		switch msg.Role {
		case model.ChatRoleAssistant:
			sb.WriteString("Coach: ")
		default:
			sb.WriteString("User: ")
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\nCoach:")
	return sb.String()
}

func chatMessageDTO(msg *model.ChatMessage) *dto.ChatMessageDTO {
	return &dto.ChatMessageDTO{
		ID:        msg.ID,
		Role:      msg.Role,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
}
