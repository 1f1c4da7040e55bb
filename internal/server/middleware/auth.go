package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"helpdesk/internal/pkg/ctxutil"
	httputil "helpdesk/internal/pkg/http"
	"helpdesk/internal/pkg/jwt"
)

// AgentAuth 坐席 JWT 认证中间件
// 从 Authorization header 中提取 Bearer token，验证后注入 agent_id 到 context
// jwtUtil 为 nil 时不做认证，直接放行
func AgentAuth(jwtUtil *jwt.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtUtil == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.Fail(c, http.StatusUnauthorized, httputil.CodeUnauthorized, "Missing authorization header")
			return
		}

		// 提取 Token（Bearer {token}）
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			httputil.Fail(c, http.StatusUnauthorized, httputil.CodeUnauthorized, "Invalid authorization header")
			return
		}

		claims, err := jwtUtil.ValidateToken(parts[1])
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, jwt.ErrExpiredToken) {
				message = "Token expired"
			}
			httputil.Fail(c, http.StatusUnauthorized, httputil.CodeInvalidToken, message)
			return
		}

		ctx := ctxutil.WithAgentID(c.Request.Context(), claims.AgentID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("agent_id", claims.AgentID)

		c.Next()
	}
}
