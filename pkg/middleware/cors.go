package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"senac-reservas-backend/pkg/config"
)

// CORS 创建CORS中间件
func CORS(cfg *config.Config) func(http.Handler) http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Requested-With",
		},
		// 导出文件名和列表总数需要暴露给前端
		ExposedHeaders: []string{
			"Content-Disposition",
			"X-Total-Count",
		},
		MaxAge: 300, // 5分钟
	}

	// 当AllowedOrigins为*时，不能设置AllowCredentials为true
	if len(cfg.AllowedOrigins) > 0 && cfg.AllowedOrigins[0] != "*" {
		corsOptions.AllowCredentials = true
	} else {
		corsOptions.AllowedOrigins = []string{"*"}
	}

	return cors.Handler(corsOptions)
}
