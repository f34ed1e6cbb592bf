// Package health implementa o handler de verificação de saúde.
package health

import (
	"net/http"

	"github.com/go-chi/render"
)

// New retorna o handler de /health.
func New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}
