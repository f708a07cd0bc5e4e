package models

import (
	"time"

	"github.com/google/uuid"
)

// User — модель пользователя в системе.
//
// RefreshTokenHash — хэш единственного активного refresh-токена пользователя
// (пустая строка — активного токена нет). Выпуск нового токена всегда
// затирает предыдущий: одновременно действует не более одной сессии.
type User struct {
	ID               uuid.UUID
	Name             string
	Email            string
	PasswordHash     string
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
