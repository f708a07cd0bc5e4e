package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pribylovaa/contact-manager/auth-service/internal/config"
	"github.com/pribylovaa/contact-manager/auth-service/internal/models"
	"github.com/pribylovaa/contact-manager/auth-service/internal/service"
	"github.com/pribylovaa/contact-manager/auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Файл сквозных тестов HTTP-слоя: реальный роутер + реальный сервис поверх
// потокобезопасного in-memory хранилища с теми же CAS-семантиками, что и в
// postgres-реализации. Настоящий CAS против БД проверяют интеграционные
// тесты пакета storage/postgres.

// memStorage — in-memory реализация storage.Storage для сквозных тестов.
type memStorage struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemStorage() *memStorage {
	return &memStorage{users: make(map[uuid.UUID]*models.User)}
}

func (m *memStorage) SaveUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return storage.ErrAlreadyExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStorage) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStorage) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memStorage) UpdateRefreshToken(_ context.Context, userID uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	u.RefreshTokenHash = hash
	return nil
}

func (m *memStorage) RotateRefreshToken(_ context.Context, userID uuid.UUID, oldHash, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.RefreshTokenHash != oldHash {
		return storage.ErrStaleToken
	}
	u.RefreshTokenHash = newHash
	return nil
}

func (m *memStorage) ClearRefreshToken(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.RefreshTokenHash == hash {
			u.RefreshTokenHash = ""
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStorage) Close() {}

var _ storage.Storage = (*memStorage)(nil)

func testConfig(env string, accessTTL time.Duration) *config.Config {
	return &config.Config{
		Env: env,
		Auth: config.AuthConfig{
			AccessSecret:    "e2e-access-secret",
			RefreshSecret:   "e2e-refresh-secret",
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: 24 * time.Hour,
			Issuer:          "auth-service",
			Audience:        []string{"contact-manager"},
		},
		Cookies: config.CookieConfig{Domain: ".example.com"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	svc := service.New(newMemStorage(), cfg.Auth)
	srv := httptest.NewServer(NewRouter(svc, cfg, Options{}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any, cookies []*http.Cookie) *http.Response {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, url string, cookies []*http.Cookie) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func cookieByName(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func errMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	return body.Error.Message
}

func registerAlice(t *testing.T, srv *httptest.Server) *http.Response {
	t.Helper()
	return postJSON(t, srv.URL+"/auth/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "Sup3rSecret!",
	}, nil)
}

func TestEndToEnd_RegisterLoginMeRefresh(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	// Регистрация: 201, публичный профиль, обе cookie.
	resp := registerAlice(t, srv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reg struct {
		Message string `json:"message"`
		User    struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	_ = resp.Body.Close()
	require.Equal(t, "Registration successful", reg.Message)
	require.Equal(t, "Alice", reg.User.Name)
	require.Equal(t, "alice@example.com", reg.User.Email)
	require.NotEmpty(t, reg.User.ID)

	cookieByName(t, resp, "accessToken")
	cookieByName(t, resp, "refreshToken")

	// Вход с неверным паролем: 401 "Invalid credentials".
	resp = postJSON(t, srv.URL+"/auth/login", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid credentials", errMessage(t, resp))

	// Вход с верным паролем: 200 + свежая пара cookie.
	resp = postJSON(t, srv.URL+"/auth/login", map[string]string{
		"email": "alice@example.com", "password": "Sup3rSecret!",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	access := cookieByName(t, resp, "accessToken")
	refresh := cookieByName(t, resp, "refreshToken")

	// /auth/me с access-cookie: публичный профиль Алисы.
	resp = get(t, srv.URL+"/auth/me", []*http.Cookie{access})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	_ = resp.Body.Close()
	require.Equal(t, "alice@example.com", me.User.Email)

	// Ротация: новая пара cookie, старый refresh становится бесполезен.
	resp = postJSON(t, srv.URL+"/auth/refresh-token", nil, []*http.Cookie{refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	newRefresh := cookieByName(t, resp, "refreshToken")
	require.NotEqual(t, refresh.Value, newRefresh.Value)

	resp = postJSON(t, srv.URL+"/auth/refresh-token", nil, []*http.Cookie{refresh})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Invalid refresh token", errMessage(t, resp))

	// Новый refresh работает.
	resp = postJSON(t, srv.URL+"/auth/refresh-token", nil, []*http.Cookie{newRefresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	resp := registerAlice(t, srv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = registerAlice(t, srv)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "User already exists", errMessage(t, resp))
}

func TestLogin_UnknownEmail_AndWrongPassword_SameResponse(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	resp := registerAlice(t, srv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	unknown := postJSON(t, srv.URL+"/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "Sup3rSecret!",
	}, nil)
	wrongPW := postJSON(t, srv.URL+"/auth/login", map[string]string{
		"email": "alice@example.com", "password": "definitely-wrong",
	}, nil)

	// Неизвестный email и неверный пароль неразличимы: статус и сообщение совпадают.
	require.Equal(t, http.StatusUnauthorized, unknown.StatusCode)
	require.Equal(t, http.StatusUnauthorized, wrongPW.StatusCode)
	require.Equal(t, errMessage(t, unknown), errMessage(t, wrongPW))
}

func TestRefresh_NoCookie(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	resp := postJSON(t, srv.URL+"/auth/refresh-token", nil, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Refresh token required", errMessage(t, resp))
}

func TestRefresh_GarbageToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	resp := postJSON(t, srv.URL+"/auth/refresh-token", nil, []*http.Cookie{
		{Name: "refreshToken", Value: "not-a-jwt"},
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Invalid refresh token", errMessage(t, resp))
}

func TestLogout_RevokesRefresh_ButNotAccess(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	resp := registerAlice(t, srv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
	access := cookieByName(t, resp, "accessToken")
	refresh := cookieByName(t, resp, "refreshToken")

	// Logout: 200 всегда, обе cookie сбрасываются.
	resp = postJSON(t, srv.URL+"/auth/logout", nil, []*http.Cookie{refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
	for _, name := range []string{"accessToken", "refreshToken"} {
		c := cookieByName(t, resp, name)
		require.Empty(t, c.Value)
		require.Less(t, c.MaxAge, 0)
	}

	// Access-токен жив до истечения срока: он не отзываем по построению.
	resp = get(t, srv.URL+"/auth/me", []*http.Cookie{access})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Старый refresh отозван.
	resp = postJSON(t, srv.URL+"/auth/refresh-token", nil, []*http.Cookie{refresh})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Invalid refresh token", errMessage(t, resp))

	// Повторный logout идемпотентен.
	resp = postJSON(t, srv.URL+"/auth/logout", nil, []*http.Cookie{refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMe_AuthStates(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	// Нет токена.
	resp := get(t, srv.URL+"/auth/me", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Not authenticated", errMessage(t, resp))

	// Искажённый токен.
	resp = get(t, srv.URL+"/auth/me", []*http.Cookie{{Name: "accessToken", Value: "garbage"}})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid token", errMessage(t, resp))
}

func TestMe_ExpiredToken_DistinctMessage(t *testing.T) {
	t.Parallel()

	// Отрицательный TTL: выданный access-токен просрочен с момента выпуска.
	srv := newTestServer(t, testConfig("local", -time.Minute))

	resp := registerAlice(t, srv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
	access := cookieByName(t, resp, "accessToken")

	resp = get(t, srv.URL+"/auth/me", []*http.Cookie{access})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Token expired", errMessage(t, resp))
}

func TestMe_BearerFallback(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	resp := registerAlice(t, srv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
	access := cookieByName(t, resp, "accessToken")

	// Небраузерный клиент: токен в Authorization вместо cookie.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+access.Value)

	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	_ = resp2.Body.Close()
}

func TestMe_PreflightPassesThrough(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/auth/me", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Preflight не должен упираться в аутентификацию.
	require.NotEqual(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCookieAttributes(t *testing.T) {
	t.Parallel()

	t.Run("local", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, testConfig("local", 15*time.Minute))
		resp := registerAlice(t, srv)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()

		access := cookieByName(t, resp, "accessToken")
		require.True(t, access.HttpOnly)
		require.False(t, access.Secure)
		require.Equal(t, http.SameSiteLaxMode, access.SameSite)
		require.Equal(t, "/", access.Path)
		require.Empty(t, access.Domain)
		require.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)

		refresh := cookieByName(t, resp, "refreshToken")
		require.True(t, refresh.HttpOnly)
		require.Equal(t, int((24 * time.Hour).Seconds()), refresh.MaxAge)
	})

	t.Run("prod", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, testConfig("prod", 15*time.Minute))
		resp := registerAlice(t, srv)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()

		access := cookieByName(t, resp, "accessToken")
		require.True(t, access.HttpOnly)
		require.True(t, access.Secure)
		require.Equal(t, http.SameSiteNoneMode, access.SameSite)
		require.Equal(t, "example.com", access.Domain)
	})
}

func TestConcurrentRefresh_SingleWinner(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	resp := registerAlice(t, srv)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()
	refresh := cookieByName(t, resp, "refreshToken")

	const attempts = 2
	statuses := make(chan int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := postJSON(t, srv.URL+"/auth/refresh-token", nil, []*http.Cookie{refresh})
			statuses <- r.StatusCode
			_ = r.Body.Close()
		}()
	}
	wg.Wait()
	close(statuses)

	var ok, forbidden int
	for s := range statuses {
		switch s {
		case http.StatusOK:
			ok++
		case http.StatusForbidden:
			forbidden++
		default:
			t.Fatalf("unexpected status %d", s)
		}
	}

	// Ровно один победитель ротации; проигравший отвергается.
	require.Equal(t, 1, ok, fmt.Sprintf("ok=%d forbidden=%d", ok, forbidden))
	require.Equal(t, attempts-1, forbidden)
}

func TestRegister_InvalidBody(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/register", bytes.NewReader([]byte(`{"unknown_field":1}`)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRequestID_Propagated(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, testConfig("local", 15*time.Minute))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/login", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "req-42", resp.Header.Get("X-Request-Id"))

	var body struct {
		Error struct {
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "req-42", body.Error.RequestID)
}
