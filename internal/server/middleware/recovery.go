package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	httputil "helpdesk/internal/pkg/http"
)

// Recovery 捕获处理链中的 panic，记录堆栈后返回统一的 500 响应
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("method", c.Request.Method).
					Str("route", c.FullPath()).
					Str("request_id", c.GetString(RequestIDKey)).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				httputil.Fail(c, http.StatusInternalServerError, httputil.CodeInternal, "Internal Server Error")
			}
		}()
		c.Next()
	}
}
