// Package metrics 提供监控指标功能，支持Prometheus标准.
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arqdiario/arqvault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// IngestCounter SIP 摄取结果计数器，按最终状态区分.
	IngestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sip_ingest_total",
			Help: "Total number of SIP ingestions by outcome",
		},
		[]string{"outcome"},
	)

	// IngestFileCounter 摄取写入的文件数量计数器.
	IngestFileCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sip_ingest_files_total",
			Help: "Total number of package files persisted during ingestion",
		},
	)

	// ExportCounter DIP 导出计数器.
	ExportCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dip_export_total",
			Help: "Total number of DIP exports served",
		},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
)

// InitMetrics 初始化指标注册表.
func InitMetrics(cfg configs.MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}

	collectorsToRegister := []prometheus.Collector{
		RequestCounter,
		RequestDuration,
		IngestCounter,
		IngestFileCounter,
		ExportCounter,
	}

	if cfg.RuntimeMetrics {
		collectorsToRegister = append(collectorsToRegister,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	for _, c := range collectorsToRegister {
		if err := registry.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// Registry 返回应用的Prometheus注册表（供gorm插件等复用）.
func Registry() *prometheus.Registry {
	return registry
}

// StartMetricsServer 在独立端口启动指标服务；endpoint 为空时挂载到主引擎的 /metrics.
func StartMetricsServer(cfg configs.MetricsConfig, engine *gin.Engine) error {
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	if cfg.Endpoint == "" {
		engine.GET("/metrics", gin.WrapH(handler))

		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	go func() {
		_ = http.ListenAndServe(cfg.Endpoint, mux)
	}()

	return nil
}
