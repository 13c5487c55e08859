package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the given origins ("*" for any) to call the API from a browser.
func CORS(origins []string) func(next http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})
}
