package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/pribylovaa/contact-manager/auth-service/internal/service"
	"github.com/pribylovaa/contact-manager/auth-service/internal/transport/http/httperr"

	"github.com/google/uuid"
)

type userIDKey struct{}

// UserID достаёт из контекста ID пользователя, привязанный Authenticate.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok
}

// Authenticate — Token Verifier: проверяет access-токен входящего запроса
// и привязывает ID пользователя к контексту.
//
// Источник токена: cookie "accessToken"; для небраузерных клиентов —
// fallback на заголовок Authorization: Bearer.
//
// Машина состояний:
//   - нет токена                        -> 401 "Not authenticated";
//   - токен просрочен                   -> 401 "Token expired";
//   - подпись неверна/токен искажён     -> 401 "Invalid token";
//   - токен валиден                     -> userID в контексте, запрос идёт дальше.
//
// CORS preflight (OPTIONS) всегда пропускается без аутентификации.
// Мидлвар никогда не обращается к хранилищу: проверка access-токена
// чисто криптографическая, O(1) и stateless.
func Authenticate(svc *service.Service) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token := accessToken(r)
			if token == "" {
				httperr.Write(w, r, http.StatusUnauthorized, "not_authenticated", "Not authenticated")
				return
			}

			userID, err := svc.ValidateAccessToken(token)
			if err != nil {
				if errors.Is(err, service.ErrTokenExpired) {
					httperr.Write(w, r, http.StatusUnauthorized, "token_expired", "Token expired")
					return
				}

				httperr.Write(w, r, http.StatusUnauthorized, "invalid_token", "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// accessToken извлекает access-токен: сначала cookie, затем Bearer-заголовок.
func accessToken(r *http.Request) string {
	if c, err := r.Cookie("accessToken"); err == nil && c.Value != "" {
		return c.Value
	}

	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}

	return ""
}
