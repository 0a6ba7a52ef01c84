package configs

import (
	"github.com/spf13/viper"
)

// MetricsConfig Metrics相关配置，支持Prometheus.
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`         // 是否启用Metrics
	ServiceName    string `mapstructure:"service_name"`    // 服务名称
	Endpoint       string `mapstructure:"endpoint"`        // 独立指标服务监听地址
	RuntimeMetrics bool   `mapstructure:"runtime_metrics"` // 是否收集运行时指标
}

// setDefaults 设置Metrics配置的默认值.
func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.service_name", "arqvault")
	v.SetDefault("metrics.endpoint", ":9090")
	v.SetDefault("metrics.runtime_metrics", true)
}
