package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/studyhub/backend-go/internal/di"
	"github.com/studyhub/backend-go/internal/services"
)

var validate = validator.New()

// ChatController 问答与会话接口
type ChatController struct {
	BaseController
}

// ChatRequest 问答请求体
type ChatRequest struct {
	ChatID  uint   `json:"chat_id" validate:"required"`
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// CreateChatRequest 创建会话请求体
type CreateChatRequest struct {
	Title string `json:"title" validate:"max=255"`
}

// Post 处理一轮问答 POST /api/chat
func (c *ChatController) Post() {
	userID, ok := c.getAuthenticatedUserID()
	if !ok {
		c.JSONError(http.StatusUnauthorized, "missing user identity")
		return
	}

	var req ChatRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSONError(http.StatusBadRequest, err.Error())
		return
	}

	err := di.Invoke(func(chat *services.ChatService, conversations *services.ConversationService) {
		if _, err := conversations.GetChat(c.Ctx.Request.Context(), req.ChatID, userID); err != nil {
			c.JSONAppError(err)
			return
		}

		result, err := chat.HandleTurn(c.Ctx.Request.Context(), userID, req.Message, req.ChatID)
		if err != nil {
			c.JSONAppError(err)
			return
		}
		c.JSONSuccess(map[string]interface{}{
			"answer": result.Answer,
		})
	})
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "service unavailable")
	}
}

// CreateChat 创建会话 POST /api/chats
func (c *ChatController) CreateChat() {
	userID, ok := c.getAuthenticatedUserID()
	if !ok {
		c.JSONError(http.StatusUnauthorized, "missing user identity")
		return
	}

	var req CreateChatRequest
	if len(c.Ctx.Input.RequestBody) > 0 {
		if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
			c.JSONError(http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			c.JSONError(http.StatusBadRequest, err.Error())
			return
		}
	}

	err := di.Invoke(func(conversations *services.ConversationService) {
		chat, err := conversations.CreateChat(c.Ctx.Request.Context(), userID, req.Title)
		if err != nil {
			c.JSONAppError(err)
			return
		}
		c.JSONSuccess(chat)
	})
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "service unavailable")
	}
}

// ListChats 列出会话 GET /api/chats
func (c *ChatController) ListChats() {
	userID, ok := c.getAuthenticatedUserID()
	if !ok {
		c.JSONError(http.StatusUnauthorized, "missing user identity")
		return
	}

	err := di.Invoke(func(conversations *services.ConversationService) {
		chats, err := conversations.ListChats(c.Ctx.Request.Context(), userID)
		if err != nil {
			c.JSONAppError(err)
			return
		}
		c.JSONSuccess(chats)
	})
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "service unavailable")
	}
}

// GetMessages 获取会话消息 GET /api/chats/:id/messages
func (c *ChatController) GetMessages() {
	userID, ok := c.getAuthenticatedUserID()
	if !ok {
		c.JSONError(http.StatusUnauthorized, "missing user identity")
		return
	}

	chatID, err := strconv.ParseUint(c.Ctx.Input.Param(":id"), 10, 32)
	if err != nil {
		c.JSONError(http.StatusBadRequest, "invalid chat id")
		return
	}

	invokeErr := di.Invoke(func(conversations *services.ConversationService) {
		if _, err := conversations.GetChat(c.Ctx.Request.Context(), uint(chatID), userID); err != nil {
			c.JSONAppError(err)
			return
		}

		messages, err := conversations.GetChatMessages(c.Ctx.Request.Context(), uint(chatID))
		if err != nil {
			c.JSONAppError(err)
			return
		}
		c.JSONSuccess(messages)
	})
	if invokeErr != nil {
		c.JSONError(http.StatusInternalServerError, "service unavailable")
	}
}
