package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"senac-reservas-backend/pkg/config"
	"senac-reservas-backend/pkg/utils"
)

// Recovery 恢复中间件，处理panic并返回统一的错误响应
func Recovery(cfg *config.Config, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					// net/http 依赖这个 panic 中止响应
					panic(rec)
				}

				stack := debug.Stack()
				logger.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(stack)))

				if cfg.IsDevelopment() {
					// 开发环境：显示详细错误信息
					utils.WriteErrorResponseWithCode(w, http.StatusInternalServerError,
						"INTERNAL_SERVER_ERROR",
						fmt.Sprintf("Internal server error: %v", rec),
						string(stack))
					return
				}
				// 生产环境：隐藏详细错误信息
				utils.WriteInternalServerErrorResponse(w, "Internal server error occurred")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
