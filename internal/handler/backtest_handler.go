package handler

import (
	"strconv"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/service"
	"botdeck/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BacktestHandler struct {
	backtestService *service.BacktestService
}

func NewBacktestHandler(backtestService *service.BacktestService) *BacktestHandler {
	return &BacktestHandler{backtestService: backtestService}
}

// RunBacktest handles POST /api/v1/backtest/:config_id
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req model.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.backtestService.Run(c.Request.Context(), userID, c.Param("config_id"), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, result, "Backtest completed successfully")
}

// ListResults handles GET /api/v1/backtest/results
func (h *BacktestHandler) ListResults(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	configID := c.Query("config_id")

	results, err := h.backtestService.ListResults(c.Request.Context(), userID, configID, limit, offset)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, results)
}

// GetResult handles GET /api/v1/backtest/results/:id
func (h *BacktestHandler) GetResult(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.backtestService.GetResult(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, result)
}

// DeleteResult handles DELETE /api/v1/backtest/results/:id
func (h *BacktestHandler) DeleteResult(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.backtestService.DeleteResult(c.Request.Context(), userID, c.Param("id")); err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, nil, "Backtest result deleted successfully")
}
