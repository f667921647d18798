package handler

import (
	"strconv"
	"strings"

	"botdeck/backend/internal/model"
	"botdeck/backend/internal/service"
	"botdeck/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req model.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, order, "Order placed successfully")
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	orders, err := h.orderService.List(c.Request.Context(), userID, limit)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrderStatus handles GET /api/v1/orders/:symbol/:order_id
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		util.SendValidationError(c, "order_id must be numeric")
		return
	}

	symbol := strings.ToUpper(c.Param("symbol"))

	status, err := h.orderService.GetStatus(c.Request.Context(), userID, symbol, orderID)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, status)
}

// CancelOrder handles DELETE /api/v1/orders/:symbol/:order_id
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil {
		util.SendValidationError(c, "order_id must be numeric")
		return
	}

	symbol := strings.ToUpper(c.Param("symbol"))

	result, err := h.orderService.Cancel(c.Request.Context(), userID, symbol, orderID)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, result, "Order canceled successfully")
}
