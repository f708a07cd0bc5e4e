package postgres

import (
	"context"
	"fmt"

	"github.com/pribylovaa/contact-manager/auth-service/internal/storage"

	"github.com/google/uuid"
)

// UpdateRefreshToken безусловно перезаписывает хэш refresh-токена пользователя.
// Прежняя ссылка (если была) затирается: старый refresh-токен с этого момента
// криптографически валиден, но более не авторитетен.
func (s *Storage) UpdateRefreshToken(ctx context.Context, userID uuid.UUID, hash string) error {
	const op = "storage.postgres.UpdateRefreshToken"

	query := `
		UPDATE users
		SET refresh_token_hash = $2, updated_at = now()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, userID, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// RotateRefreshToken атомарно заменяет oldHash на newHash (compare-and-swap).
// Условие WHERE сравнивает сохранённую ссылку с предъявленной, поэтому из двух
// конкурентных ротаций по одному и тому же токену выигрывает ровно одна;
// проигравшая видит 0 затронутых строк и получает ErrStaleToken.
func (s *Storage) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string) error {
	const op = "storage.postgres.RotateRefreshToken"

	query := `
		UPDATE users
		SET refresh_token_hash = $3, updated_at = now()
		WHERE id = $1 AND refresh_token_hash = $2
	`

	cmdTag, err := s.db.Exec(ctx, query, userID, oldHash, newHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrStaleToken)
	}

	return nil
}

// ClearRefreshToken обнуляет сохранённый хэш по его текущему значению (logout).
func (s *Storage) ClearRefreshToken(ctx context.Context, hash string) error {
	const op = "storage.postgres.ClearRefreshToken"

	query := `
		UPDATE users
		SET refresh_token_hash = NULL, updated_at = now()
		WHERE refresh_token_hash = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
