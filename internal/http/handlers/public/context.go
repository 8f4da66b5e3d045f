package public

import (
	handlershared "github.com/nextchow/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getCustomerID(c *gin.Context) (uint, bool) {
	return handlershared.GetCustomerID(c)
}

func getVendorID(c *gin.Context) (uint, bool) {
	return handlershared.GetVendorID(c)
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	return handlershared.ParseUintParam(c, name)
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, status int, kind, msg string, err error) {
	handlershared.RespondError(c, status, kind, msg, err)
}
