package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"anonchat/internal/app"
	"anonchat/internal/transport/http/middleware"
	"anonchat/internal/transport/http/response"
	"anonchat/internal/validation"
)

type MessageHandler struct {
	messageService *app.MessageService
}

type SendMessageRequest struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

type AcceptMessagesRequest struct {
	AcceptMessages *bool `json:"acceptMessages"`
}

func NewMessageHandler(messageService *app.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validation.Struct(validation.SendMessage{Username: req.Username, Content: req.Content}); err != nil {
		response.Invalid(c, http.StatusBadRequest, err)
		return
	}

	err := h.messageService.SendMessage(c.Request.Context(), app.SendMessageInput{
		Username: req.Username,
		Content:  req.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "User not found")
		case errors.Is(err, app.ErrNotAcceptingMessages):
			response.Error(c, http.StatusForbidden, "User is not accepting messages")
		case errors.Is(err, app.ErrMessageEmpty), errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, "Content is required")
		default:
			slog.ErrorContext(c.Request.Context(), "send message failed", "error", err)
			response.Error(c, http.StatusInternalServerError, "Error sending message")
		}
		return
	}

	response.OK(c, http.StatusCreated, "Message sent successfully", nil)
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	messages, err := h.messageService.GetMessages(c.Request.Context(), username, limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusNotFound, "User not found")
		default:
			slog.ErrorContext(c.Request.Context(), "get messages failed", "error", err)
			response.Error(c, http.StatusInternalServerError, "Error fetching messages")
		}
		return
	}

	response.OK(c, http.StatusOK, "ok", gin.H{"messages": messages})
}

func (h *MessageHandler) GetAcceptMessages(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	accepting, err := h.messageService.AcceptingMessages(c.Request.Context(), username)
	if err != nil {
		h.acceptError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "ok", gin.H{"isAcceptingMessages": accepting})
}

func (h *MessageHandler) UpdateAcceptMessages(c *gin.Context) {
	username, ok := middleware.Username(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req AcceptMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validation.Struct(validation.AcceptMessages{AcceptMessages: req.AcceptMessages}); err != nil {
		response.Invalid(c, http.StatusBadRequest, err)
		return
	}

	if err := h.messageService.SetAcceptingMessages(c.Request.Context(), username, *req.AcceptMessages); err != nil {
		h.acceptError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Message acceptance status updated successfully", gin.H{
		"isAcceptingMessages": *req.AcceptMessages,
	})
}

func (h *MessageHandler) acceptError(c *gin.Context, err error) {
	if errors.Is(err, app.ErrUserNotFound) {
		response.Error(c, http.StatusNotFound, "User not found")
		return
	}
	slog.ErrorContext(c.Request.Context(), "accept messages status failed", "error", err)
	response.Error(c, http.StatusInternalServerError, "Error updating message acceptance status")
}
