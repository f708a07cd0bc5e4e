package handlers

import (
	"errors"
	"net/http"

	"github.com/pribylovaa/contact-manager/auth-service/internal/service"
	"github.com/pribylovaa/contact-manager/auth-service/internal/transport/http/httperr"
	"github.com/pribylovaa/contact-manager/auth-service/internal/transport/http/middleware"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string   `json:"message"`
	User    userView `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	User userView `json:"user"`
}

// Register регистрирует пользователя, открывает сессию и ставит cookie-пару.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}

	pair, user, err := h.service.RegisterUser(r.Context(), in.Name, in.Email, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusCreated, authResponse{
		Message: "Registration successful",
		User:    toUserView(user),
	})
}

// Login аутентифицирует пользователя и ставит свежую cookie-пару.
// Прежняя сессия аккаунта (если была) неявно аннулируется.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.Write(w, r, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}

	pair, user, err := h.service.LoginUser(r.Context(), in.Email, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    toUserView(user),
	})
}

// Refresh ротирует пару токенов по refresh-cookie.
//
// Маппинг ошибок — контракт эндпоинта:
//   - cookie отсутствует -> 401 "Refresh token required";
//   - токен невалиден/просрочен/отозван/опережён ротацией -> 403 "Invalid refresh token".
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		httperr.Write(w, r, http.StatusUnauthorized, "refresh_token_required", "Refresh token required")
		return
	}

	pair, _, err := h.service.RefreshTokens(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) ||
			errors.Is(err, service.ErrTokenExpired) ||
			errors.Is(err, service.ErrTokenRevoked) {
			httperr.Write(w, r, http.StatusForbidden, "invalid_refresh_token", "Invalid refresh token")
			return
		}

		httperr.WriteError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Token refreshed successfully"})
}

// Logout отзывает refresh-токен (best-effort) и безусловно сбрасывает cookie.
// Для клиента операция всегда успешна.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		h.service.Logout(r.Context(), cookie.Value)
	}

	h.clearTokenCookies(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

// CurrentUser возвращает публичный профиль аутентифицированного пользователя.
// ID берётся из контекста, куда его привязал Token Verifier.
func (h *Handlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httperr.Write(w, r, http.StatusUnauthorized, "not_authenticated", "Not authenticated")
		return
	}

	user, err := h.service.UserByID(r.Context(), userID)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: toUserView(user)})
}
