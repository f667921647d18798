package handler

import (
	"botdeck/backend/internal/model"
	"botdeck/backend/internal/service"
	"botdeck/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BotHandler struct {
	botService *service.BotService
	runtime    *service.BotRuntime
}

func NewBotHandler(botService *service.BotService, runtime *service.BotRuntime) *BotHandler {
	return &BotHandler{
		botService: botService,
		runtime:    runtime,
	}
}

func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		util.SendError(c, util.ErrUnauthorized("User not authenticated"))
		return "", false
	}
	return userID.(string), true
}

// CreateConfig handles POST /api/v1/bots/configs
func (h *BotHandler) CreateConfig(c *gin.Context) {
	var req model.BotConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cfg, err := h.botService.CreateConfig(c.Request.Context(), userID, &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, cfg, "Bot configuration created successfully")
}

// ListConfigs handles GET /api/v1/bots/configs
func (h *BotHandler) ListConfigs(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	configs, err := h.botService.ListConfigs(c.Request.Context(), userID)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, configs)
}

// GetConfig handles GET /api/v1/bots/configs/:id
func (h *BotHandler) GetConfig(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cfg, err := h.botService.GetConfig(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, cfg)
}

// UpdateConfig handles PUT /api/v1/bots/configs/:id
func (h *BotHandler) UpdateConfig(c *gin.Context) {
	var req model.BotConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cfg, err := h.botService.UpdateConfig(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, cfg, "Bot configuration updated successfully")
}

// DeleteConfig handles DELETE /api/v1/bots/configs/:id
func (h *BotHandler) DeleteConfig(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.botService.DeleteConfig(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, nil, "Bot configuration deleted successfully")
}

// StartBot handles POST /api/v1/bots/:id/start
func (h *BotHandler) StartBot(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := h.runtime.Start(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, status, "Bot started successfully")
}

// StopBot handles POST /api/v1/bots/:id/stop
func (h *BotHandler) StopBot(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.runtime.Stop(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, nil, "Bot stopped successfully")
}

// GetBotStatus handles GET /api/v1/bots/:id/status
func (h *BotHandler) GetBotStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := h.runtime.Status(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, status)
}

// GetAllBotStatus handles GET /api/v1/bots/status
func (h *BotHandler) GetAllBotStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	statuses, err := h.runtime.StatusAll(c.Request.Context(), userID)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, statuses)
}
