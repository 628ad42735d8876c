package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/yannickabena/mboa-storefront/pkg/config"
)

// CORS applies the allowed-origin policy for the browser frontend.
// Credentials stay on: the session rides in a cookie.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
