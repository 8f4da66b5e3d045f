package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nextchow/internal/config"
	publichandlers "github.com/nextchow/internal/http/handlers/public"
	"github.com/nextchow/internal/http/response"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "nc"
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxRequests,
		Message:       "too many checkout attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	r.Use(MetricsMiddleware(c.Metrics))

	r.GET("/healthz", healthHandler(c))
	if c.Metrics != nil {
		metricsPath := strings.TrimSpace(cfg.Metrics.Path)
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(c.Metrics.Handler()))
	}

	// 公开接口
	r.GET("/vendors/:id/menus", publicHandler.ListVendorMenus)
	r.POST("/payments/webhook/paystack", publicHandler.PaystackWebhook)

	// 顾客接口（需鉴权）
	customer := r.Group("")
	customer.Use(CustomerAuthMiddleware(c.CustomerAuthService))
	{
		customer.GET("/cart", publicHandler.GetCart)
		customer.POST("/cart/add-pack", publicHandler.AddPack)
		customer.DELETE("/cart/pack/:pack_index", publicHandler.RemovePack)
		customer.DELETE("/cart", publicHandler.ClearCart)
		customer.POST("/cart/checkout", RateLimitMiddleware(c.Cache.Client(), checkoutRule, KeyByCustomer), publicHandler.Checkout)

		customer.GET("/orders", publicHandler.ListOrders)
		customer.GET("/orders/by-status/:status", publicHandler.ListOrdersByStatus)
		customer.GET("/orders/:id", publicHandler.GetOrder)
		customer.POST("/orders/:id/cancel", publicHandler.CancelOrder)
		customer.POST("/orders/:id/reorder", publicHandler.Reorder)
	}

	// 商家接口（需鉴权）
	vendor := r.Group("/vendor")
	vendor.Use(VendorAuthMiddleware(c.VendorAuthService))
	{
		vendor.PATCH("/orders/:id/status", publicHandler.UpdateVendorOrderStatus)
	}

	r.NoRoute(func(ctx *gin.Context) {
		response.NotFound(ctx, "route not found")
	})

	return r
}

func healthHandler(c *provider.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"database": "ok"}
		healthy := true
		if sqlDB, err := c.DB.DB(); err != nil || sqlDB.PingContext(checkCtx) != nil {
			checks["database"] = "unavailable"
			healthy = false
		}
		if c.Cache.Enabled() {
			checks["redis"] = "ok"
			if err := c.Cache.Ping(checkCtx); err != nil {
				checks["redis"] = "unavailable"
				healthy = false
			}
		}
		if !healthy {
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, response.Response{
				Success:   false,
				Message:   "unhealthy",
				Error:     response.KindUnavailable,
				RequestID: getRequestID(ctx),
				Data:      checks,
			})
			return
		}
		response.Success(ctx, checks)
	}
}
