package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/finveiculos/painel-representantes/internal/auth"
)

type contextKey string

const ContextKeySession contextKey = "session"

// Auth valida JWT de acesso e injeta a sessão no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			session, err := jwtManager.ParseSession(strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession injeta a sessão no contexto.
func WithSession(ctx context.Context, session auth.Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, session)
}

// GetSession recupera a sessão autenticada.
func GetSession(ctx context.Context) (auth.Session, bool) {
	session, ok := ctx.Value(ContextKeySession).(auth.Session)
	return session, ok
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	session, ok := GetSession(ctx)
	if !ok {
		return ""
	}
	return session.Subject.String()
}

// RequireAdmin garante sessão de administrador.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSession(r.Context())
		if !ok || !session.IsAdmin() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito a administradores")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRepresentative garante sessão de representante.
func RequireRepresentative(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSession(r.Context())
		if !ok || !session.IsRepresentative() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito a representantes")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
