package http

import (
	"github.com/gin-gonic/gin"

	"github.com/dwarvesf/crypto-payment-backend/internal/handler"
)

func loadV1Routes(r *gin.Engine, h *handler.Handler) {
	v1 := r.Group("/api/v1")

	payments := v1.Group("/payments")
	{
		payments.GET("/:id", h.PaymentHandler.Detail)
	}

	healthGroup := v1.Group("/health")
	{
		healthGroup.GET("/db", h.HealthHandler.Database)
		healthGroup.GET("/jobs", h.HealthHandler.Jobs)
	}

	// health check
	r.GET("/healthz", h.HealthHandler.Basic)

	r.GET("/metrics", h.MetricsHandler.Handler())
}
