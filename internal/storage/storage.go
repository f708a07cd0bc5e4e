package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/contact-manager/auth-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена (пользователь/refresh-токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
	// ErrStaleToken — CAS-ротация не прошла: сохранённая ссылка на refresh-токен
	// уже не совпадает с предъявленной (токен отозван или опережён конкурентной ротацией).
	ErrStaleToken = errors.New("stale refresh token")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RefreshTokenStorage управляет единственной отзываемой ссылкой
// на refresh-токен в строке пользователя.
type RefreshTokenStorage interface {
	// UpdateRefreshToken безусловно перезаписывает сохранённый хэш refresh-токена
	// (вход/регистрация: прежняя сессия неявно аннулируется).
	UpdateRefreshToken(ctx context.Context, userID uuid.UUID, hash string) error
	// RotateRefreshToken атомарно заменяет oldHash на newHash (compare-and-swap).
	// Если сохранённый хэш уже не равен oldHash — ErrStaleToken.
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string) error
	// ClearRefreshToken обнуляет сохранённый хэш по его текущему значению (logout).
	// Если ни одна строка не содержит такой хэш — ErrNotFound.
	ClearRefreshToken(ctx context.Context, hash string) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	Close()
}
