package configs

import "github.com/spf13/viper"

// AuthConfig 控制统一身份认证（优先支持 oauth2-proxy 注入的请求头）。
type AuthConfig struct {
	Enabled       bool     `mapstructure:"enabled"`         // 开启认证校验
	SkipPaths     []string `mapstructure:"skip_paths"`      // 跳过认证的路径前缀（如 /metrics、/health）
	DevAllowQuery bool     `mapstructure:"dev_allow_query"` // 开发模式允许用 ?user= 便于本地调试
	AdminUsers    []string `mapstructure:"admin_users"`     // 管理员用户列表（邮箱）
	AdminGroup    string   `mapstructure:"admin_group"`     // 管理员组名（匹配 X-Auth-Request-Groups）
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.dev_allow_query", true)
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/health",
	})
	v.SetDefault("auth.admin_users", []string{})
	v.SetDefault("auth.admin_group", "admin")
}
