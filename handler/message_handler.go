package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/pdfchat-be/middleware"
	"github.com/tieubaoca/pdfchat-be/service"
	"github.com/tieubaoca/pdfchat-be/types"
)

type MessageHandler interface {
	HandleSendMessage(c *gin.Context)
	HandleMessageInfo(c *gin.Context)
	HandleWebSocket(c *gin.Context)
}

type messageHandler struct {
	chat *service.ChatService
	ws   *service.WebSocketService
}

func NewMessageHandler(chat *service.ChatService, ws *service.WebSocketService) MessageHandler {
	return &messageHandler{
		chat: chat,
		ws:   ws,
	}
}

// HandleSendMessage replies with the assistant text as a plain body; errors
// carry a short plain message.
func (h *messageHandler) HandleSendMessage(c *gin.Context) {
	var req types.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.chat.HandleChat(c.Request.Context(), req.DocumentID, middleware.UserID(c), req.Message)
	if err != nil {
		status, msg := service.ErrorStatus(err)
		c.String(status, msg)
		return
	}
	c.String(http.StatusOK, reply)
}

func (h *messageHandler) HandleMessageInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Message API endpoint"})
}

func (h *messageHandler) HandleWebSocket(c *gin.Context) {
	h.ws.HandleChat(c.Writer, c.Request, middleware.UserID(c))
}
