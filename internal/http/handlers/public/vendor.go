package public

import (
	"strconv"
	"strings"

	handlershared "github.com/nextchow/internal/http/handlers/shared"
	"github.com/nextchow/internal/http/response"
	"github.com/nextchow/internal/service"

	"github.com/gin-gonic/gin"
)

// ListVendorMenus 浏览商家菜单
func (h *Handler) ListVendorMenus(c *gin.Context) {
	vendorID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := handlershared.QueryPagination(c)
	categoryID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("category_id")), 10, 64)
	onlyAvailable := true
	if raw := strings.TrimSpace(c.Query("only_available")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			onlyAvailable = parsed
		}
	}
	menus, total, err := h.CatalogService.ListVendorMenus(c.Request.Context(), service.ListVendorMenusInput{
		VendorID:      vendorID,
		CategoryID:    uint(categoryID),
		Search:        strings.TrimSpace(c.Query("search")),
		OnlyAvailable: onlyAvailable,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		respondWithMappedError(c, err, vendorErrorRules)
		return
	}
	response.SuccessWithPage(c, menus, response.NewPagination(page, pageSize, total))
}
