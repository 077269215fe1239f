package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/beego/beego/v2/server/web"

	apperrors "github.com/studyhub/backend-go/internal/errors"
)

// BaseController provides helpers for consistent JSON responses.
type BaseController struct {
	web.Controller
}

// JSON writes a JSON response with the supplied HTTP status code.
func (c *BaseController) JSON(status int, payload interface{}) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	c.ServeJSON()
}

// JSONSuccess writes a standard success envelope.
func (c *BaseController) JSONSuccess(data interface{}) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// JSONError writes an error envelope with message.
func (c *BaseController) JSONError(status int, message string) {
	c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// JSONAppError maps an application error to the right HTTP status.
func (c *BaseController) JSONAppError(err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsCode(err, apperrors.ErrCodeValidationFailed):
		status = http.StatusBadRequest
	case apperrors.IsCode(err, apperrors.ErrCodeNotFound):
		status = http.StatusNotFound
	case apperrors.IsCode(err, apperrors.ErrCodeGeneration):
		status = http.StatusBadGateway
	}
	c.JSONError(status, err.Error())
}

// getAuthenticatedUserID 获取用户ID。
// 简化实现：Bearer {user_id}或X-User-Id头，网关负责真正的鉴权。
func (c *BaseController) getAuthenticatedUserID() (uint, bool) {
	authHeader := c.Ctx.Input.Header("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if userID, err := strconv.ParseUint(parts[1], 10, 32); err == nil {
				return uint(userID), true
			}
		}
	}

	userIDHeader := c.Ctx.Input.Header("X-User-Id")
	if userIDHeader != "" {
		if userID, err := strconv.ParseUint(userIDHeader, 10, 32); err == nil {
			return uint(userID), true
		}
	}

	return 0, false
}
