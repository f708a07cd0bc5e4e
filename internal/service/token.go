package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/contact-manager/auth-service/internal/models"
	"github.com/pribylovaa/contact-manager/auth-service/internal/pkg/log"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Дискриминатор класса токена в claims: refresh-токен нельзя предъявить
// как access-токен и наоборот.
const (
	tokenKindAccess  = "access"
	tokenKindRefresh = "refresh"
)

type tokenClaims struct {
	UserID string `json:"uid"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// generateToken подписывает токен заданного класса секретом этого класса.
// Каждый выпуск уникален: jti берётся из нового uuid, поэтому два токена
// одного пользователя и класса различаются даже в пределах одной секунды.
// Без этого ротация refresh-токена в ту же секунду заменила бы ссылку
// на саму себя и старый токен остался бы авторитетным.
func (s *Service) generateToken(ctx context.Context, userID uuid.UUID, kind, secret string, ttl time.Duration, now time.Time) (string, error) {
	const op = "service.token.generateToken"

	lg := log.From(ctx)

	claims := tokenClaims{
		UserID: userID.String(),
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		lg.Error("token_sign_failed",
			slog.String("op", op),
			slog.String("kind", kind),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// validateToken проверяет подпись, срок действия и класс токена.
func (s *Service) validateToken(tokenStr, kind, secret string) (uuid.UUID, error) {
	const op = "service.token.validateToken"

	token, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.Kind != kind {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, nil
}

// ValidateAccessToken проверяет access-токен и возвращает ID пользователя.
// Чисто криптографическая проверка: хранилище не затрагивается.
func (s *Service) ValidateAccessToken(tokenStr string) (uuid.UUID, error) {
	const op = "service.token.ValidateAccessToken"

	uid, err := s.validateToken(tokenStr, tokenKindAccess, s.cfg.AccessSecret)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return uid, nil
}

// validateRefreshToken проверяет подпись/срок/класс refresh-токена.
// Сверка с сохранённой ссылкой выполняется отдельно (см. RefreshTokens).
func (s *Service) validateRefreshToken(tokenStr string) (uuid.UUID, error) {
	return s.validateToken(tokenStr, tokenKindRefresh, s.cfg.RefreshSecret)
}

// issueTokenPair выпускает новую пару access+refresh токенов.
func (s *Service) issueTokenPair(ctx context.Context, userID uuid.UUID, now time.Time) (*models.TokenPair, error) {
	const op = "service.token.issueTokenPair"

	accessToken, err := s.generateToken(ctx, userID, tokenKindAccess, s.cfg.AccessSecret, s.cfg.AccessTokenTTL, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.generateToken(ctx, userID, tokenKindRefresh, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  now.Add(s.cfg.AccessTokenTTL),
		RefreshExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}, nil
}

// refreshHash — серверное представление refresh-токена: в БД хранится
// только хэш, сам токен знает лишь клиент.
func refreshHash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
