package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aidar/service-catalog/internal/domain"
	"github.com/aidar/service-catalog/internal/service"
)

// ContextKey это кастомный тип для ключей контекста
type ContextKey string

// IdentityKey ключ контекста для удостоверения пользователя
const IdentityKey ContextKey = "identity"

// AuthMiddleware создает middleware для валидации JWT токенов.
// Удостоверение {userId, teamId, roles} извлекается из токена и прикрепляется
// к контексту каждого авторизованного запроса.
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":{"code":"UNAUTHORIZED","message":"missing authorization header"}}`, http.StatusUnauthorized)
				return
			}

			// Проверяем формат Bearer
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, `{"error":{"code":"UNAUTHORIZED","message":"invalid authorization header format"}}`, http.StatusUnauthorized)
				return
			}

			// Валидируем токен
			claims, err := authService.ValidateToken(parts[1])
			if err != nil {
				http.Error(w, `{"error":{"code":"UNAUTHORIZED","message":"invalid or expired token"}}`, http.StatusUnauthorized)
				return
			}

			// Добавляем удостоверение в контекст
			ctx := context.WithValue(r.Context(), IdentityKey, claims.Identity())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentityFromContext извлекает удостоверение пользователя из контекста
func GetIdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	return identity, ok
}
