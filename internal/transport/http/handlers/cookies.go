package handlers

import (
	"net/http"

	"github.com/pribylovaa/contact-manager/auth-service/internal/models"
)

// Имена транспортных cookie — внешний контракт, их знает фронт.
const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

// setTokenCookies кладёт пару токенов в HttpOnly-cookie.
//
// Атрибуты — часть внешнего контракта:
//   - HttpOnly всегда (токены недоступны из JS);
//   - Secure и SameSite=None только в prod (кросс-доменный фронт за TLS),
//     иначе SameSite=Lax;
//   - Path=/ и время жизни, равное TTL соответствующего токена;
//   - Domain задаётся в prod для работы на поддоменах.
func (h *Handlers) setTokenCookies(w http.ResponseWriter, pair *models.TokenPair) {
	access := h.baseCookie(accessCookieName)
	access.Value = pair.AccessToken
	access.MaxAge = int(h.cfg.Auth.AccessTokenTTL.Seconds())
	access.Expires = pair.AccessExpiresAt

	refresh := h.baseCookie(refreshCookieName)
	refresh.Value = pair.RefreshToken
	refresh.MaxAge = int(h.cfg.Auth.RefreshTokenTTL.Seconds())
	refresh.Expires = pair.RefreshExpiresAt

	http.SetCookie(w, access)
	http.SetCookie(w, refresh)
}

// clearTokenCookies сбрасывает обе cookie. Идемпотентно: сброс уже
// отсутствующих cookie не является ошибкой.
func (h *Handlers) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		c := h.baseCookie(name)
		c.Value = ""
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *Handlers) baseCookie(name string) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.IsProd(),
		SameSite: http.SameSiteLaxMode,
	}

	if h.cfg.IsProd() {
		c.SameSite = http.SameSiteNoneMode
		c.Domain = h.cfg.Cookies.Domain
	}

	return c
}
