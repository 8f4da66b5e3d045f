package public

import (
	"net/http"
	"strings"
	"time"

	handlershared "github.com/nextchow/internal/http/handlers/shared"
	"github.com/nextchow/internal/http/response"
	"github.com/nextchow/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 顾客订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	h.listOrders(c, c.Query("status"))
}

// ListOrdersByStatus 按状态筛选顾客订单
func (h *Handler) ListOrdersByStatus(c *gin.Context) {
	status := strings.TrimSpace(c.Param("status"))
	if status == "" {
		respondError(c, http.StatusBadRequest, response.KindOrderStatusInvalid, "status is required", nil)
		return
	}
	h.listOrders(c, status)
}

func (h *Handler) listOrders(c *gin.Context, status string) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	createdFrom, ok := parseQueryTime(c, "created_from")
	if !ok {
		return
	}
	createdTo, ok := parseQueryTime(c, "created_to")
	if !ok {
		return
	}
	orders, total, err := h.OrderService.ListOrders(c.Request.Context(), service.ListOrdersInput{
		CustomerID:  customerID,
		Status:      status,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 顾客订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(c.Request.Context(), customerID, orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules)
		return
	}
	response.Success(c, order)
}

// CancelOrder 顾客取消待处理订单
func (h *Handler) CancelOrder(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(c.Request.Context(), customerID, orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules)
		return
	}
	response.SuccessWithMsg(c, "order cancelled", order)
}

// Reorder 以历史订单的包重新下单
func (h *Handler) Reorder(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	result, err := h.CheckoutService.Reorder(c.Request.Context(), customerID, orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules)
		return
	}
	response.SuccessWithMsg(c, "reorder initiated", result)
}

func parseQueryTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, response.KindBadRequest, key+" must be an RFC3339 timestamp", nil)
		return nil, false
	}
	return &parsed, true
}

// UpdateOrderStatusRequest 商家更新订单状态请求
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateVendorOrderStatus 商家推进自己店铺的订单状态
func (h *Handler) UpdateVendorOrderStatus(c *gin.Context) {
	vendorID, ok := getVendorID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, response.KindBadRequest, "status is required", nil)
		return
	}
	order, err := h.OrderService.UpdateStatus(c.Request.Context(), vendorID, orderID, req.Status)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules)
		return
	}
	response.SuccessWithMsg(c, "order status updated to "+order.Status, order)
}
