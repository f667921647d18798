package handler

import (
	"botdeck/backend/internal/model"
	"botdeck/backend/internal/service"
	"botdeck/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// APIKeyHandler handles exchange API key endpoints
type APIKeyHandler struct {
	apiKeyService *service.APIKeyService
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(apiKeyService *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService: apiKeyService,
	}
}

// Create registers a new API key
// POST /api/v1/user/api-keys
func (h *APIKeyHandler) Create(c *gin.Context) {
	var req model.APIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	apiKey, err := h.apiKeyService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, apiKey, "API key saved and validated successfully")
}

// List returns the user's API keys with secrets masked
// GET /api/v1/user/api-keys
func (h *APIKeyHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	keys, err := h.apiKeyService.List(c.Request.Context(), userID)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, keys)
}

// Delete removes an API key
// DELETE /api/v1/user/api-keys/:id
func (h *APIKeyHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.apiKeyService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, nil, "API key deleted successfully")
}

// Validate re-checks an API key against the exchange
// POST /api/v1/user/api-keys/:id/validate
func (h *APIKeyHandler) Validate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	apiKey, err := h.apiKeyService.ValidateAndUpdate(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, apiKey, "API key validated successfully")
}

// GetAccountInfo returns the exchange account balances
// GET /api/v1/user/account
func (h *APIKeyHandler) GetAccountInfo(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	info, err := h.apiKeyService.GetAccountInfo(c.Request.Context(), userID)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, info)
}
