package public

import (
	"github.com/nextchow/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Checkout 将购物车转为订单并发起支付
func (h *Handler) Checkout(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	result, err := h.CheckoutService.Checkout(c.Request.Context(), customerID)
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules)
		return
	}
	requestLog(c).Infow("checkout_response",
		"customer_id", customerID,
		"order_id", result.Order.ID,
		"reference", result.Reference,
		"resumed", result.Resumed,
	)
	response.SuccessWithMsg(c, "checkout initiated", result)
}
