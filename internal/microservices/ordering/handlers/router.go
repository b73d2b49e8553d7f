package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"tableside/internal/common/logger"
)

func Router(h *Handler, lg *logger.Logger, timeout time.Duration) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(lg), requestTimeout(timeout))

	r.GET("/healthz", h.HealthHandler.Healthz)

	v1 := r.Group("/api/v1")
	v1.GET("/tables", h.TableHandler.ListTables)
	v1.POST("/tables/:id/bind", h.TableHandler.Bind)
	v1.DELETE("/session", h.TableHandler.Unbind)
	v1.GET("/products", h.TableHandler.ListProducts)

	v1.GET("/cart", h.CartHandler.Get)
	v1.POST("/cart/items", h.CartHandler.AddItem)
	v1.DELETE("/cart/items/:product_id", h.CartHandler.RemoveItem)
	v1.DELETE("/cart", h.CartHandler.Clear)

	v1.POST("/orders", h.OrderHandler.Submit)
	v1.GET("/orders/current", h.OrderHandler.Current)
	v1.GET("/orders/:id", h.OrderHandler.Get)
	v1.GET("/orders/:id/timeline", h.OrderHandler.Timeline)
	v1.POST("/orders/:id/pay", h.OrderHandler.Pay)

	v1.POST("/lines/:id/serve", h.OrderHandler.ServeLine)
	v1.POST("/lines/:id/pay", h.OrderHandler.PayLine)
	return r
}
