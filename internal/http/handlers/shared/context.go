package shared

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nextchow/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CustomerIDKey 鉴权中间件写入的顾客ID键
const CustomerIDKey = "user_id"

// VendorIDKey 商家鉴权中间件写入的商家ID键
const VendorIDKey = "vendor_id"

// GetContextUint 从上下文读取 uint 值并统一处理错误响应。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, http.StatusUnauthorized, response.KindUnauthorized, "authentication required", nil)
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		if v == 0 {
			RespondError(c, http.StatusUnauthorized, response.KindUnauthorized, "authentication required", nil)
			return 0, false
		}
		return v, true
	case int:
		if v <= 0 {
			RespondError(c, http.StatusBadRequest, response.KindBadRequest, key+" is invalid", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v <= 0 {
			RespondError(c, http.StatusBadRequest, response.KindBadRequest, key+" is invalid", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, http.StatusInternalServerError, response.KindInternal, key+" has an unexpected type", nil)
		return 0, false
	}
}

// GetCustomerID 读取当前顾客ID
func GetCustomerID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, CustomerIDKey)
}

// GetVendorID 读取当前商家ID
func GetVendorID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, VendorIDKey)
}

// ParseUintParam 解析路径中的正整数参数
func ParseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		RespondError(c, http.StatusBadRequest, response.KindBadRequest, name+" must be a positive integer", nil)
		return 0, false
	}
	return uint(value), true
}
