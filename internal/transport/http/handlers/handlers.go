package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/contact-manager/auth-service/internal/config"
	"github.com/pribylovaa/contact-manager/auth-service/internal/models"
	"github.com/pribylovaa/contact-manager/auth-service/internal/service"
)

// Handlers агрегирует зависимости auth-эндпоинтов.
type Handlers struct {
	service *service.Service
	cfg     *config.Config
}

func New(svc *service.Service, cfg *config.Config) *Handlers {
	return &Handlers{service: svc, cfg: cfg}
}

// userView — публичное представление пользователя.
// Хэш пароля и ссылка на refresh-токен наружу не отдаются никогда.
type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserView(u *models.User) userView {
	return userView{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через httperr.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
