// Package middlewarectx contém os middlewares HTTP do serviço.
//
// JWTMiddleware valida o token emitido pelo provedor de identidade
// externo (assinatura e expiração) e injeta o UID do usuário no
// contexto da requisição. Em caso de falha responde 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"

	"github.com/brzap/disparador/internal/http/response"
	"github.com/brzap/disparador/internal/lib/sl"
)

// Key tipo das chaves de contexto da requisição.
type Key string

const (
	// UserUID chave do UID do usuário no contexto.
	UserUID Key = "user_uid"
)

type idpClaims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

// JWTMiddleware valida o bearer token do cabeçalho Authorization com o
// segredo compartilhado do provedor de identidade.
func JWTMiddleware(secretKey string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "auth.JWTMiddleware"
			authHeader := r.Header.Get("Authorization")

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			var claims idpClaims
			token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secretKey), nil
			})
			if err != nil || !token.Valid || claims.Sub == "" {
				if err != nil {
					log.Error("invalid or expired token", sl.Err(err))
				} else {
					log.Error("invalid or expired token")
				}
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.Sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
