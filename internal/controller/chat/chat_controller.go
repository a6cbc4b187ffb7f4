package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nxquan/prepmate/internal/dto"
	"github.com/nxquan/prepmate/internal/middleware"
	"github.com/nxquan/prepmate/internal/service"
	"github.com/rs/zerolog/log"
)

type ChatController struct {
	chatService service.ChatService
}

func NewChatController(chatService service.ChatService) *ChatController {
	return &ChatController{chatService: chatService}
}

// SendMessage godoc
// @Summary Send a message to the interview-prep assistant
// @Tags Chat
// @Accept json
// @Produce json
// @Param message body dto.ChatRequest true "Message text"
// @Success 200 {object} dto.ChatMessageDTO
// @Failure 400 {object} dto.ErrorResponse "Validation failure"
// @Failure 502 {object} dto.ErrorResponse "Assistant unavailable"
// @Security BearerAuth
// @Router /chat [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)

	var req dto.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	reply, err := c.chatService.SendMessage(userID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrAssistantUnavailable) {
			ctx.JSON(http.StatusBadGateway, dto.ErrorResponse{Message: "Assistant is currently unavailable, please try again"})
			return
		}
		log.Error().Err(err).Uint("userID", userID).Msg("SendMessage: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to send message"})
		return
	}
	ctx.JSON(http.StatusOK, reply)
}

// History godoc
// @Summary Get the caller's chat history
// @Tags Chat
// @Produce json
// @Success 200 {array} dto.ChatMessageDTO
// @Security BearerAuth
// @Router /chat/history [get]
func (c *ChatController) History(ctx *gin.Context) {
	userID := middleware.CurrentUserID(ctx)

	messages, err := c.chatService.History(userID)
	if err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("History: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to load chat history"})
		return
	}
	ctx.JSON(http.StatusOK, messages)
}
