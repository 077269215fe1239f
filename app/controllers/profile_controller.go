package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/studyhub/backend-go/internal/di"
	"github.com/studyhub/backend-go/internal/services"
)

// ProfileController 用户画像接口
type ProfileController struct {
	BaseController
}

// Get 获取解析后的画像 GET /api/profile
func (c *ProfileController) Get() {
	userID, ok := c.getAuthenticatedUserID()
	if !ok {
		c.JSONError(http.StatusUnauthorized, "missing user identity")
		return
	}

	err := di.Invoke(func(profiles *services.ProfileService) {
		profile := profiles.Resolve(c.Ctx.Request.Context(), userID)
		c.JSONSuccess(profile)
	})
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "service unavailable")
	}
}

// Put 更新画像字段 PUT /api/profile
func (c *ProfileController) Put() {
	userID, ok := c.getAuthenticatedUserID()
	if !ok {
		c.JSONError(http.StatusUnauthorized, "missing user identity")
		return
	}

	var req services.UpdateProfileRequest
	if err := json.Unmarshal(c.Ctx.Input.RequestBody, &req); err != nil {
		c.JSONError(http.StatusBadRequest, "invalid request body")
		return
	}

	err := di.Invoke(func(profiles *services.ProfileService) {
		profile, err := profiles.Update(c.Ctx.Request.Context(), userID, &req)
		if err != nil {
			c.JSONAppError(err)
			return
		}
		c.JSONSuccess(profile)
	})
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "service unavailable")
	}
}
