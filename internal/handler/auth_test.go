package handler_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/router"
	"github.com/iliyamo/auth-service/internal/service"
)

// memUserStore backs the handler tests; same contract as the MySQL repo.
type memUserStore struct {
	nextID  uint64
	byEmail map[string]model.User
	byID    map[uint64]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: map[string]model.User{}, byID: map[uint64]model.User{}}
}

func (m *memUserStore) Create(_ context.Context, firstName, lastName, email, passwordHash string, role model.Role) (uint64, error) {
	email = model.NormalizeEmail(email)
	if _, ok := m.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	m.nextID++
	u := model.User{ID: m.nextID, FirstName: firstName, LastName: lastName, Email: email, PasswordHash: passwordHash, Role: role, IsActive: true}
	m.byEmail[email] = u
	m.byID[u.ID] = u
	return u.ID, nil
}

func (m *memUserStore) GetByEmailWithHash(_ context.Context, email string) (model.User, error) {
	u, ok := m.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Config{
		Env:            "dev",
		AccessSecret:   "handler-access-secret",
		RefreshSecret:  "handler-refresh-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
	svc := service.NewAuthService(cfg, newMemUserStore(), repository.NewTokenRepo(rdb), nil)
	a := handler.NewAuthHandler(cfg, svc)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, a, cfg.AccessSecret)
	return e
}

func doJSON(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const registerBody = `{"firstName":"A","lastName":"B","email":"a@example.com","password":"secret"}`

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestRegisterEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/v1/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User struct {
			ID    uint64 `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
		Access  struct{ Token string } `json:"access"`
		Refresh struct{ Token string } `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a@example.com", resp.User.Email)
	assert.Equal(t, "CUSTOMER", resp.User.Role)
	assert.NotEmpty(t, resp.Access.Token)
	assert.NotEmpty(t, resp.Refresh.Token)

	// Both tokens also travel as HTTP-only cookies.
	for _, name := range []string{"accessToken", "refreshToken"} {
		ck := cookieByName(rec, name)
		require.NotNil(t, ck, "missing %s cookie", name)
		assert.True(t, ck.HttpOnly)
		assert.NotEmpty(t, ck.Value)
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing first name", `{"lastName":"B","email":"a@example.com","password":"secret"}`},
		{"missing last name", `{"firstName":"A","email":"a@example.com","password":"secret"}`},
		{"missing email", `{"firstName":"A","lastName":"B","password":"secret"}`},
		{"bad email", `{"firstName":"A","lastName":"B","email":"not-an-email","password":"secret"}`},
		{"short password", `{"firstName":"A","lastName":"B","email":"a@example.com","password":"pw"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/v1/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegisterDuplicateEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/v1/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(e, http.MethodPost, "/v1/auth/register", registerBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	e := newTestServer(t)
	doJSON(e, http.MethodPost, "/v1/auth/register", registerBody)

	rec := doJSON(e, http.MethodPost, "/v1/auth/login", `{"email":"a@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, cookieByName(rec, "refreshToken"))
}

func TestLoginFailureShapeIsUniform(t *testing.T) {
	e := newTestServer(t)
	doJSON(e, http.MethodPost, "/v1/auth/register", registerBody)

	wrongPass := doJSON(e, http.MethodPost, "/v1/auth/login", `{"email":"a@example.com","password":"wrong"}`)
	noAccount := doJSON(e, http.MethodPost, "/v1/auth/login", `{"email":"nobody@example.com","password":"secret"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, noAccount.Code)
	// Identical bodies: the response must not reveal which field was wrong.
	assert.Equal(t, wrongPass.Body.String(), noAccount.Body.String())
}

func TestRefreshEndpointRotates(t *testing.T) {
	e := newTestServer(t)
	reg := doJSON(e, http.MethodPost, "/v1/auth/register", registerBody)
	oldRefresh := cookieByName(reg, "refreshToken")
	require.NotNil(t, oldRefresh)

	rec := doJSON(e, http.MethodPost, "/v1/auth/refresh", "", oldRefresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	newRefresh := cookieByName(rec, "refreshToken")
	require.NotNil(t, newRefresh)
	assert.NotEqual(t, oldRefresh.Value, newRefresh.Value)

	// Replaying the consumed token is a 401.
	rec = doJSON(e, http.MethodPost, "/v1/auth/refresh", "", oldRefresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshEndpointFromBody(t *testing.T) {
	e := newTestServer(t)
	reg := doJSON(e, http.MethodPost, "/v1/auth/register", registerBody)
	refresh := cookieByName(reg, "refreshToken")
	require.NotNil(t, refresh)

	// API clients without cookies send the token in the body instead.
	rec := doJSON(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+refresh.Value+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRefreshEndpointMissingToken(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/v1/auth/refresh", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	e := newTestServer(t)
	reg := doJSON(e, http.MethodPost, "/v1/auth/register", registerBody)
	refresh := cookieByName(reg, "refreshToken")
	require.NotNil(t, refresh)

	rec := doJSON(e, http.MethodPost, "/v1/auth/logout", "", refresh)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The cookies are expired on the way out.
	cleared := cookieByName(rec, "refreshToken")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// The session is gone.
	rec = doJSON(e, http.MethodPost, "/v1/auth/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeEndpoint(t *testing.T) {
	e := newTestServer(t)
	reg := doJSON(e, http.MethodPost, "/v1/auth/register", registerBody)
	access := cookieByName(reg, "accessToken")
	require.NotNil(t, access)

	// Bearer header.
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"role":"CUSTOMER"`)

	// Cookie works too.
	rec = doJSON(e, http.MethodGet, "/v1/me", "", access)
	assert.Equal(t, http.StatusOK, rec.Code)

	// No token at all is a 401.
	rec = doJSON(e, http.MethodGet, "/v1/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAccessCookieExpiryMatchesToken(t *testing.T) {
	e := newTestServer(t)
	rec := doJSON(e, http.MethodPost, "/v1/auth/register", registerBody)

	access := cookieByName(rec, "accessToken")
	require.NotNil(t, access)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), access.Expires, time.Minute)

	refresh := cookieByName(rec, "refreshToken")
	require.NotNil(t, refresh)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), refresh.Expires, time.Minute)
}
