package controllers

import (
	"context"
	"net/http"
	"time"

	"bankly/middleware"
	"bankly/utils"

	"github.com/gin-gonic/gin"
)

// Pinger проверка доступности хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// NewOpsRouter собирает служебный сервер: /healthz и /metrics
func NewOpsRouter(db Pinger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.GinRecovery())
	router.Use(middleware.GinLogger())

	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	})

	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.GetMetrics().GetMetricsSnapshot())
	})

	return router
}
