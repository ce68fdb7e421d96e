package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nekogravitycat/auditorium-booking/internal/auth"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/middleware"
	"github.com/nekogravitycat/auditorium-booking/internal/pkg/response"
	"github.com/nekogravitycat/auditorium-booking/internal/user"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]user.User
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *memRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r *memRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	r.users[u.ID] = *u
	return nil
}

func (r *memRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.LastLoginAt = &t
	r.users[id] = u
	return nil
}

type testEnv struct {
	router *gin.Engine
	jwt    *auth.JWTManager
	repo   *memRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	repo := &memRepo{users: make(map[string]user.User)}
	svc := user.NewService(repo, auth.NewBcryptPasswordHasher(bcrypt.MinCost), nil)

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, jwtManager), auth.AuthRequired(jwtManager), middleware.RateLimit(0, 0, nil))
	return &testEnv{router: r, jwt: jwtManager, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/auth/register", "", RegisterRequest{
		Email:       "Officer@Example.org",
		Password:    "correct horse",
		DisplayName: "Front Office",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[MeResponse](t, w).User
	assert.Equal(t, "officer@example.org", registered.Email)
	require.NotNil(t, registered.DisplayName)
	assert.Equal(t, "Front Office", *registered.DisplayName)
	assert.Nil(t, registered.LastLoginAt)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(t, http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: "officer@example.org", Password: "correct horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[LoginResponse](t, w)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, registered.ID, login.User.ID)
	assert.NotNil(t, login.User.LastLoginAt)

	principal, err := env.jwt.ParseAndValidate(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, principal.UserID)

	w = env.do(t, http.MethodGet, "/v1/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[MeResponse](t, w).User
	assert.Equal(t, registered.ID, me.ID)
	assert.NotNil(t, me.LastLoginAt)
}

func TestRegisterRejections(t *testing.T) {
	env := newTestEnv(t)

	body := RegisterRequest{Email: "officer@example.org", Password: "correct horse"}
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/auth/register", "", body).Code)

	w := env.do(t, http.MethodPost, "/v1/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, user.ErrEmailAlreadyUsed.Message, decode[response.ErrorResponse](t, w).Error)

	w = env.do(t, http.MethodPost, "/v1/auth/register", "", RegisterRequest{Email: "not-an-email", Password: "correct horse"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/v1/auth/register", "", RegisterRequest{Email: "new@example.org", Password: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/v1/auth/register", "",
		RegisterRequest{Email: "officer@example.org", Password: "correct horse"}).Code)

	w := env.do(t, http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: "officer@example.org", Password: "wrong horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, user.ErrInvalidCredentials.Message, decode[response.ErrorResponse](t, w).Error)

	w = env.do(t, http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: "nobody@example.org", Password: "correct horse"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "officer@example.org"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for id, u := range env.repo.users {
		u.IsActive = false
		env.repo.users[id] = u
	}
	w = env.do(t, http.MethodPost, "/v1/auth/login", "", LoginRequest{Email: "officer@example.org", Password: "correct horse"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMeRequiresLiveAccount(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A valid token for an account that no longer exists.
	tok, err := env.jwt.GenerateAccessToken(uuid.NewString(), "gone@example.org")
	require.NoError(t, err)
	w = env.do(t, http.MethodGet, "/v1/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "user not found")
}
