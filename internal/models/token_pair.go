package models

import "time"

// TokenPair — пара токенов, выдаваемая при регистрации/входе/ротации.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API; нигде не хранится,
//     его валидность чисто криптографическая;
//   - RefreshToken — долгоживущий JWT для выпуска новой пары; на сервере
//     хранится только его хэш (единственная отзываемая ссылка на сессию);
//   - AccessExpiresAt/RefreshExpiresAt — моменты истечения токенов (UTC).
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — JWT для обновления пары.
	RefreshToken string
	// AccessExpiresAt — время истечения действия access-токена (UTC).
	AccessExpiresAt time.Time
	// RefreshExpiresAt — время истечения действия refresh-токена (UTC).
	RefreshExpiresAt time.Time
}
