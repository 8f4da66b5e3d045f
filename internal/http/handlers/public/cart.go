package public

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nextchow/internal/http/response"
	"github.com/nextchow/internal/models"

	"github.com/gin-gonic/gin"
)

// PackItemRequest 包内菜品行请求
type PackItemRequest struct {
	MenuID   uint `json:"menu_id"`
	Quantity int  `json:"quantity"`
}

// AddPackRequest 加入包请求
type AddPackRequest struct {
	PackagingID *uint             `json:"packaging_id"`
	Items       []PackItemRequest `json:"items" binding:"required"`
}

// ToPack 转换为领域对象
func (r AddPackRequest) ToPack() models.Pack {
	pack := models.Pack{Items: make([]models.PackItem, 0, len(r.Items))}
	if r.PackagingID != nil {
		id := *r.PackagingID
		pack.PackagingID = &id
	}
	for _, item := range r.Items {
		pack.Items = append(pack.Items, models.PackItem{MenuID: item.MenuID, Quantity: item.Quantity})
	}
	return pack
}

// GetCart 获取购物车，不存在时返回空购物车
func (h *Handler) GetCart(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	cart, err := h.CartService.Get(c.Request.Context(), customerID)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules)
		return
	}
	response.Success(c, cart)
}

// AddPack 向购物车追加一个包
func (h *Handler) AddPack(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	var req AddPackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, response.KindBadRequest, "invalid request body", nil)
		return
	}
	cart, err := h.CartService.AddPack(c.Request.Context(), customerID, req.ToPack())
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules)
		return
	}
	response.SuccessWithMsg(c, "pack added to cart", cart)
}

// RemovePack 按下标删除购物车中的包
func (h *Handler) RemovePack(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	raw := strings.TrimSpace(c.Param("pack_index"))
	index, err := strconv.Atoi(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, response.KindIndexOutOfRange, "pack_index must be an integer", nil)
		return
	}
	cart, err := h.CartService.RemovePack(c.Request.Context(), customerID, index)
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules)
		return
	}
	response.SuccessWithMsg(c, "pack removed from cart", cart)
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(c.Request.Context(), customerID); err != nil {
		respondWithMappedError(c, err, cartErrorRules)
		return
	}
	response.SuccessWithMsg(c, "cart cleared", models.EmptyCart(customerID))
}
