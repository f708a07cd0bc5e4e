// service содержит бизнес-логику auth-сервиса:
// регистрацию/аутентификацию пользователей, выпуск/проверку/ротацию токенов
// и работу с хранилищем через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Единственный разделяемый изменяемый ресурс — ссылка на текущий
//     refresh-токен в строке пользователя; гонки ротации разрешаются
//     атомарным compare-and-swap на стороне хранилища.
//   - Ошибки возвращаются и далее маппятся транспортом на HTTP-статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/contact-manager/auth-service/internal/config"
	"github.com/pribylovaa/contact-manager/auth-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара email/пароль неверна или пользователь не найден.
	// Оба случая неразличимы для вызывающего (защита от перечисления пользователей).
	// Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи
	// или класс токена не совпадает с ожидаемым. Транспорт: HTTP 401 (access)
	// или HTTP 403 (refresh).
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. Транспорт: HTTP 401 (access)
	// или HTTP 403 (refresh).
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked — refresh-токен криптографически валиден, но более
	// не авторитетен: отозван при logout либо опережён ротацией.
	// Транспорт: HTTP 403.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrEmailTaken — e-mail уже занят другим пользователем.
	// Транспорт: HTTP 400 ("User already exists").
	ErrEmailTaken = errors.New("email already taken")

	// ErrUserNotFound — пользователь удалён между проверкой токена и чтением строки.
	// Транспорт: HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidEmail — e-mail имеет некорректный формат.
	// Транспорт: HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль короче минимальной длины.
	// Транспорт: HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой.
	// Транспорт: HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrEmptyName — отображаемое имя пустое.
	// Транспорт: HTTP 400.
	ErrEmptyName = errors.New("name is empty")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}
