package controllers

import (
	"net/http"

	"github.com/studyhub/backend-go/app/bootstrap"
	"github.com/studyhub/backend-go/internal/di"
	"github.com/studyhub/backend-go/internal/services"
)

// RootController 根路径
type RootController struct {
	BaseController
}

func (c *RootController) Index() {
	c.JSONSuccess(map[string]string{
		"service": "studyhub-backend",
		"status":  "running",
	})
}

// HealthController 健康检查
type HealthController struct {
	BaseController
}

// Health GET /health：索引未加载视为不健康
func (c *HealthController) Health() {
	app := bootstrap.GetApp()
	if app == nil || app.Holder == nil || app.Holder.Current() == nil {
		c.JSONError(http.StatusServiceUnavailable, "knowledge index not loaded")
		return
	}

	pair := app.Holder.Current()
	c.JSONSuccess(map[string]interface{}{
		"status":    "healthy",
		"chunks":    pair.Count(),
		"dimension": pair.Dimension(),
	})
}

// MetricsController Prometheus指标
type MetricsController struct {
	BaseController
}

func (c *MetricsController) Metrics() {
	err := di.Invoke(func(metrics *services.MetricsService) {
		metrics.Handler().ServeHTTP(c.Ctx.ResponseWriter, c.Ctx.Request)
	})
	if err != nil {
		c.JSONError(http.StatusInternalServerError, "metrics unavailable")
	}
}
