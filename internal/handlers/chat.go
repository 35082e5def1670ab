package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/services"
)

type ChatHandler struct {
	log  *logger.Logger
	chat services.ChatService
}

func NewChatHandler(log *logger.Logger, chat services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:  log.With("handler", "ChatHandler"),
		chat: chat,
	}
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	reply, err := h.chat.SendMessage(c.Request.Context(), req.ConversationID, req.Message)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, reply)
}

func (h *ChatHandler) History(c *gin.Context) {
	msgs, err := h.chat.History(c.Request.Context(), c.Param("conversation_id"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	out := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, gin.H{
			"message_type": m.MessageType,
			"content":      m.Content,
			"index_order":  m.IndexOrder,
		})
	}
	RespondOK(c, gin.H{"messages": out})
}
