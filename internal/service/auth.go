package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/pribylovaa/contact-manager/auth-service/internal/models"
	"github.com/pribylovaa/contact-manager/auth-service/internal/pkg/log"
	"github.com/pribylovaa/contact-manager/auth-service/internal/pkg/redact"
	"github.com/pribylovaa/contact-manager/auth-service/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterUser регистрирует нового пользователя и открывает его первую сессию.
func (s *Service) RegisterUser(ctx context.Context, name, email, password string) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.RegisterUser"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrEmptyName)
	}

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(password); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        normEmail,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Уникальность email обеспечивает constraint в БД: гонка двух
	// конкурентных регистраций всплывает как ErrAlreadyExists, не как сбой.
	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.openSession(ctx, user.ID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_registered",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
	)

	return pair, user, nil
}

// LoginUser выполняет вход по email+пароль.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *Service) LoginUser(ctx context.Context, email, password string) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.LoginUser"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	now := time.Now().UTC()
	pair, err := s.openSession(ctx, user.ID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user, nil
}

// RefreshTokens обновляет пару токенов по refresh-токену.
//
// Проверка двухступенчатая: подписи недостаточно — токен обязан совпасть
// с сохранённой ссылкой пользователя. Это и делает refresh-токен отзываемым:
// после logout или ротации криптографически валидный токен отклоняется.
// Замена ссылки атомарна (compare-and-swap): из двух конкурентных ротаций
// по одному токену выигрывает ровно одна.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.RefreshTokens"

	lg := log.From(ctx)

	userID, err := s.validateRefreshToken(refreshToken)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	oldHash := refreshHash(refreshToken)
	if user.RefreshTokenHash != oldHash {
		lg.Warn("refresh_superseded",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
			slog.String("refresh_token", redact.Token()),
		)
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	now := time.Now().UTC()
	pair, err := s.issueTokenPair(ctx, userID, now)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.RotateRefreshToken(ctx, userID, oldHash, refreshHash(pair.RefreshToken)); err != nil {
		if errors.Is(err, storage.ErrStaleToken) {
			// Проигравший конкурентной ротации: ссылка уже не наша.
			lg.Warn("refresh_rotation_lost",
				slog.String("op", op),
				slog.String("user_id", userID.String()),
				slog.String("refresh_token", redact.Token()),
			)
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, userID, nil
}

// Logout отзывает предъявленный refresh-токен.
// Операция best-effort: любые проблемы логируются, но не возвращаются —
// с точки зрения клиента logout не может завершиться неуспехом.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	const op = "service.auth.Logout"

	if refreshToken == "" {
		return
	}

	if err := s.storage.ClearRefreshToken(ctx, refreshHash(refreshToken)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Токен уже отозван или никогда не был авторитетным.
			return
		}

		log.From(ctx).Error("logout_clear_failed",
			slog.String("op", op),
			slog.String("refresh_token", redact.Token()),
			slog.String("err", err.Error()),
		)
	}
}

// UserByID возвращает пользователя по проверенному ID
// (поставляется Token Verifier'ом из access-токена).
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "service.auth.UserByID"

	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// openSession выпускает пару токенов и безусловно перезаписывает сохранённую
// ссылку на refresh-токен: прежняя сессия (если была) неявно аннулируется —
// на аккаунт одновременно действует не более одной сессии.
func (s *Service) openSession(ctx context.Context, userID uuid.UUID, now time.Time) (*models.TokenPair, error) {
	const op = "service.auth.openSession"

	pair, err := s.issueTokenPair(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateRefreshToken(ctx, userID, refreshHash(pair.RefreshToken)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем (bcrypt, константное время).
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service.auth.validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования к паролю.
// Полная полевая валидация выполняется до этого ядра; здесь только
// страховка: непустой пароль длиной не короче 8 символов.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
