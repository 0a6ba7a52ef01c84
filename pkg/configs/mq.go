package configs

import "github.com/spf13/viper"

// MQType 消息队列类型.
type MQType string

const (
	MQTypeNATS MQType = "nats"
)

const (
	DefaultMQEnabled       = false
	DefaultMQType          = MQTypeNATS
	DefaultMQURL           = "nats://localhost:4222"
	DefaultMQClientID      = "arqvault"
	DefaultMQMaxReconnects = 10
	DefaultMQReconnectWait = 2  // 秒
	DefaultMQPingInterval  = 20 // 秒
	DefaultMQBufferSize    = 8 * 1024 * 1024
)

// MQConfig 消息队列配置.事件发布为尽力而为：未启用时摄取管线照常工作.
type MQConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Type          MQType `mapstructure:"type"            rule:"oneof=nats"`
	URL           string `mapstructure:"url"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	ClientID      string `mapstructure:"client_id"`
	MaxReconnects int    `mapstructure:"max_reconnects"  rule:"min=0,max=100"`
	ReconnectWait int    `mapstructure:"reconnect_wait"  rule:"min=1,max=300"`
	PingInterval  int    `mapstructure:"ping_interval"   rule:"min=1,max=300"`
	BufferSize    int    `mapstructure:"buffer_size"`

	// JetStream 持久化（可选）
	JetStreamEnabled bool   `mapstructure:"jetstream_enabled"`
	SubjectPrefix    string `mapstructure:"subject_prefix"`
}

// GetMQType 返回消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.enabled", DefaultMQEnabled)
	v.SetDefault("mq.type", DefaultMQType)
	v.SetDefault("mq.url", DefaultMQURL)
	v.SetDefault("mq.client_id", DefaultMQClientID)
	v.SetDefault("mq.max_reconnects", DefaultMQMaxReconnects)
	v.SetDefault("mq.reconnect_wait", DefaultMQReconnectWait)
	v.SetDefault("mq.ping_interval", DefaultMQPingInterval)
	v.SetDefault("mq.buffer_size", DefaultMQBufferSize)
	v.SetDefault("mq.jetstream_enabled", false)
	v.SetDefault("mq.subject_prefix", "")
}
