package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultIngestMaxUploadMB     = 500    // 上传包大小上限（MB）
	DefaultIngestStrictManifest  = false  // 是否强制要求 manifesto-SIP.json
	DefaultIngestAllowEmpty      = false  // 是否允许零文件的包
	DefaultIngestTempDir         = ""     // 空表示使用 os.TempDir()
	DefaultIngestObjectPrefix    = "aips" // 对象存储中 AIP 文件的键前缀
	DefaultIngestStaleAfterHours = 6      // processing 状态超过该时长视为中断，由定时任务标记为 failed
)

// IngestConfig SIP 摄取管线配置.
//
// StrictManifest 控制两种观察到的摄取策略：
//   - false（默认）：清单可选，表单字段可以提供全部元数据；
//   - true：包内必须存在 manifesto-SIP.json，且 titulo/dataCreacao/tipo 必填.
type IngestConfig struct {
	MaxUploadMB     int64  `mapstructure:"max_upload_mb"     rule:"min=1"`
	StrictManifest  bool   `mapstructure:"strict_manifest"`
	AllowEmpty      bool   `mapstructure:"allow_empty_package"`
	TempDir         string `mapstructure:"temp_dir"`
	ObjectPrefix    string `mapstructure:"object_prefix"`
	StaleAfterHours int    `mapstructure:"stale_after_hours" rule:"min=1"`
}

// MaxUploadBytes 返回上传大小上限（字节）.
func (c *IngestConfig) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

// StaleAfter 返回判定 processing 状态过期的时长.
func (c *IngestConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterHours) * time.Hour
}

func (c *IngestConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("ingest.max_upload_mb", DefaultIngestMaxUploadMB)
	v.SetDefault("ingest.strict_manifest", DefaultIngestStrictManifest)
	v.SetDefault("ingest.allow_empty_package", DefaultIngestAllowEmpty)
	v.SetDefault("ingest.temp_dir", DefaultIngestTempDir)
	v.SetDefault("ingest.object_prefix", DefaultIngestObjectPrefix)
	v.SetDefault("ingest.stale_after_hours", DefaultIngestStaleAfterHours)
}
