// httperr стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает ошибку доменного слоя (service), а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Сообщения для auth-эндпоинтов — часть внешнего контракта
// (их проверяют клиенты): "Invalid credentials", "Token expired" и т.д.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/contact-manager/auth-service/internal/service"
)

// APIError — единый формат ошибки для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервиса в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - немаппированная ошибка — 500/internal (детали остаются в логах).
func ToHTTP(err error) (int, ErrorResponse) {
	switch {
	case err == nil:
		return internal()
	case errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, response("invalid_argument", err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		// Исторический контракт: дубликат email отдаётся как 400.
		return http.StatusBadRequest, response("already_exists", "User already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response("invalid_credentials", "Invalid credentials")
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, response("not_found", "User not found")
	default:
		return internal()
	}
}

// WriteError — хелпер для HTTP-хендлеров: маппит ошибку сервиса и пишет ответ.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)
	write(w, r, status, resp)
}

// Write пишет ответ с явным статусом/кодом/сообщением — для случаев,
// где маппинг зависит от эндпоинта (refresh, middleware аутентификации).
func Write(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	write(w, r, status, response(code, message))
}

func response(code, message string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: message}}
}

func internal() (int, ErrorResponse) {
	return http.StatusInternalServerError, response("internal", "internal error")
}

func write(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	// Прокидываем request_id для фронта, чтобы он мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
