// Package middleware 提供身份认证相关的中间件和辅助方法。
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arqdiario/arqvault/pkg/configs"
)

// Requester 表示已认证的请求方.ID 为 oauth2-proxy 注入的邮箱标识.
type Requester struct {
	ID      string
	IsAdmin bool
}

type requesterKey struct{}

// AuthMiddleware 基于 oauth2-proxy 注入的请求头做统一身份认证校验。
//   - 优先要求存在 X-Auth-Request-Email 或 X-Forwarded-Email
//   - 支持通过配置跳过某些路径（如 /metrics, /health）
//   - 开发模式可允许 query user 兜底（由 configs.auth.dev_allow_query 控制）
//
// 认证通过后将 Requester 注入 gin.Context 与 request.Context，
// 管理员身份由 admin_users 列表或 X-Auth-Request-Groups 判定.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !conf.Enabled || isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		email := strings.TrimSpace(c.GetHeader("X-Auth-Request-Email"))
		if email == "" {
			email = strings.TrimSpace(c.GetHeader("X-Forwarded-Email"))
		}

		if email == "" && conf.DevAllowQuery {
			email = strings.TrimSpace(c.Query("user"))
		}

		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		req := Requester{
			ID:      email,
			IsAdmin: isAdmin(email, c.GetHeader("X-Auth-Request-Groups"), conf),
		}

		setRequester(c, req)
		c.Next()
	}
}

func isAdmin(email, groupsHeader string, conf configs.AuthConfig) bool {
	for _, u := range conf.AdminUsers {
		if strings.EqualFold(strings.TrimSpace(u), email) {
			return true
		}
	}

	if conf.AdminGroup != "" && groupsHeader != "" {
		for _, g := range strings.Split(groupsHeader, ",") {
			if strings.EqualFold(strings.TrimSpace(g), conf.AdminGroup) {
				return true
			}
		}
	}

	return false
}

func setRequester(c *gin.Context, req Requester) {
	c.Set("requester", req)
	ctx := context.WithValue(c.Request.Context(), requesterKey{}, req)
	c.Request = c.Request.WithContext(ctx)
}

// GetRequester 从 gin.Context 获取当前请求方.未认证时 ok 为 false.
func GetRequester(c *gin.Context) (Requester, bool) {
	if v, ok := c.Get("requester"); ok {
		if r, ok2 := v.(Requester); ok2 {
			return r, true
		}
	}
	// 回退到 request context
	if v := c.Request.Context().Value(requesterKey{}); v != nil {
		if r, ok := v.(Requester); ok {
			return r, true
		}
	}

	return Requester{}, false
}

// RequireAdmin 要求管理员身份，不满足则返回 403。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ok := GetRequester(c)
		if !ok || !r.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin only"})
			return
		}

		c.Next()
	}
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
