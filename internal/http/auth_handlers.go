package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/auth"
	"github.com/finveiculos/painel-representantes/internal/representative"
	"github.com/finveiculos/painel-representantes/internal/service"
)

const (
	refreshCookieAdmin          = "refresh_admin"
	refreshCookieRepresentative = "refresh_representative"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginAdmin autentica administradores do painel.
func (h *Handler) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Password) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return
	}

	result, err := h.auth.LoginAdmin(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// LoginRepresentative autentica o representante e informa para onde o
// front-end deve direcioná-lo.
func (h *Handler) LoginRepresentative(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}
	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Password) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return
	}

	result, err := h.auth.LoginRepresentative(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	if result.Destination == representative.DestinationAccessDenied {
		WriteError(w, http.StatusForbidden, "ACCESS_DENIED", "acesso não liberado para este representante", map[string]any{
			"destination": result.Destination,
		})
		return
	}

	h.writeLoginSuccess(w, result)
}

type refreshPayload struct {
	Audience     string `json:"audience"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh troca o refresh token da audience informada por um novo par.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	if err := decodeJSON(r, &payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	audience, ok := parseAudience(payload.Audience)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "audience inválida", map[string]string{"audience": "use admin ou representative"})
		return
	}

	token := strings.TrimSpace(payload.RefreshToken)
	if token == "" {
		token = refreshFromCookie(r, audience)
	}
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "AUTH", "refresh ausente", nil)
		return
	}

	result, err := h.auth.Refresh(r.Context(), audience, token)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			h.clearRefreshCookie(w, audience)
			WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
			return
		}
		h.handleAuthError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Logout revoga o refresh token da audience informada.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var payload refreshPayload
	_ = decodeJSON(r, &payload)

	audience, ok := parseAudience(payload.Audience)
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "audience inválida", map[string]string{"audience": "use admin ou representative"})
		return
	}

	token := strings.TrimSpace(payload.RefreshToken)
	if token == "" {
		token = refreshFromCookie(r, audience)
	}
	if err := h.auth.Logout(r.Context(), audience, token); err != nil {
		log.Warn().Err(err).Str("audience", audience).Msg("logout: falha ao revogar refresh")
	}

	h.clearRefreshCookie(w, audience)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", service.ErrInvalidCredentials.Error(), nil)
	case errors.Is(err, service.ErrAccountDisabled):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", service.ErrAccountDisabled.Error(), nil)
	case errors.Is(err, service.ErrRefreshInvalid):
		WriteError(w, http.StatusUnauthorized, "AUTH", service.ErrRefreshInvalid.Error(), nil)
	default:
		log.Error().Err(err).Msg("erro ao autenticar")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao autenticar", nil)
	}
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	h.setRefreshCookie(w, result.Audience, result.RefreshToken, result.RefreshExpiry)

	body := map[string]any{
		"access_token":      result.AccessToken,
		"access_expires_at": result.AccessExpiry,
		"expires_in":        int(time.Until(result.AccessExpiry).Seconds()),
		"refresh_token":     result.RefreshToken,
		"expires_at":        result.RefreshExpiry,
		"audience":          result.Audience,
		"user":              result.Profile,
	}
	if result.Destination != "" {
		body["destination"] = result.Destination
	}
	WriteJSON(w, http.StatusOK, body)
}

func parseAudience(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case auth.AudienceAdmin:
		return auth.AudienceAdmin, true
	case auth.AudienceRepresentative:
		return auth.AudienceRepresentative, true
	}
	return "", false
}

func refreshCookieName(audience string) string {
	if audience == auth.AudienceAdmin {
		return refreshCookieAdmin
	}
	return refreshCookieRepresentative
}

func refreshFromCookie(r *http.Request, audience string) string {
	c, err := r.Cookie(refreshCookieName(audience))
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, audience, token string, expires time.Time) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName(audience),
		Value:    token,
		Path:     "/auth",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter, audience string) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName(audience),
		Value:    "",
		Path:     "/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}
