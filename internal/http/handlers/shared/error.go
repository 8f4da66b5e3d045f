package shared

import (
	"net/http"

	"github.com/nextchow/internal/http/response"
	"github.com/nextchow/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, status int, kind, msg string, err error) {
	appErr := response.WrapError(status, kind, msg, err)
	if err != nil {
		log := RequestLog(c)
		fields := []interface{}{
			"status", appErr.Status,
			"kind", appErr.Kind,
			"message", appErr.Message,
			"error", err,
		}
		if appErr.Status >= http.StatusInternalServerError {
			log.Errorw("handler_error", fields...)
		} else {
			log.Warnw("handler_error", fields...)
		}
	}
	response.Error(c, appErr.Status, appErr.Kind, appErr.Message)
}
