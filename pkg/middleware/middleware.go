// Package middleware 提供 HTTP 中间件：认证、日志、存储注入、限流、熔断与指标采集.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arqdiario/arqvault/pkg/metrics"
)

// PrometheusMiddleware 创建Gin的Prometheus中间件.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		c.Next()

		// 使用路由模板作为 path 标签，避免按 AIP ID 产生高基数
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		duration := time.Since(start).Seconds()

		metrics.RequestCounter.WithLabelValues(method, path).Inc()
		metrics.RequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
