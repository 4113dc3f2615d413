package handler

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/digital-services-site/internal/config"
    "github.com/iliyamo/digital-services-site/internal/middleware"
    "github.com/iliyamo/digital-services-site/internal/model"
)

const testSecret = "test-secret"

func newAuthEcho(t *testing.T) (*echo.Echo, *fakeUsers, *fakeTokens) {
    t.Helper()
    users, tokens := newFakeUsers(), newFakeTokens()
    cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}
    h := NewAuthHandler(cfg, users, tokens, zap.NewNop())

    e := echo.New()
    e.POST("/v1/auth/register", h.Register)
    e.POST("/v1/auth/login", h.Login)
    e.POST("/v1/auth/refresh", h.Refresh)
    e.POST("/v1/auth/refresh-access", h.RefreshAccess)
    e.POST("/v1/auth/logout", h.Logout)
    e.GET("/v1/me", h.Me, middleware.JWTAuth(testSecret))
    return e, users, tokens
}

func tokensFrom(t *testing.T, rec *httptest.ResponseRecorder) (access, refresh string) {
    t.Helper()
    body := decode(t, rec)
    access = body["access"].(map[string]any)["token"].(string)
    refresh = body["refresh"].(map[string]any)["token"].(string)
    return access, refresh
}

func TestRegisterLoginMe(t *testing.T) {
    e, users, _ := newAuthEcho(t)

    rec := doJSON(e, http.MethodPost, "/v1/auth/register", `{"email":"Ada@Example.com","password":"longenough"}`)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    body := decode(t, rec)
    assert.Equal(t, model.RoleCustomer, body["user"].(map[string]any)["role"])

    assert.Equal(t, http.StatusConflict,
        doJSON(e, http.MethodPost, "/v1/auth/register", `{"email":"ada@example.com","password":"longenough"}`).Code)
    assert.Equal(t, http.StatusBadRequest,
        doJSON(e, http.MethodPost, "/v1/auth/register", `{"email":"bob@example.com","password":"short"}`).Code)

    assert.Equal(t, http.StatusUnauthorized,
        doJSON(e, http.MethodPost, "/v1/auth/login", `{"email":"ada@example.com","password":"wrong-pass"}`).Code)
    assert.Equal(t, http.StatusUnauthorized,
        doJSON(e, http.MethodPost, "/v1/auth/login", `{"email":"nobody@example.com","password":"longenough"}`).Code)

    rec = doJSON(e, http.MethodPost, "/v1/auth/login", `{"email":"ada@example.com","password":"longenough"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    access, _ := tokensFrom(t, rec)

    req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
    req.Header.Set("Authorization", "Bearer "+access)
    me := httptest.NewRecorder()
    e.ServeHTTP(me, req)
    require.Equal(t, http.StatusOK, me.Code)
    assert.Contains(t, me.Body.String(), `"email":"ada@example.com"`)
    assert.NotContains(t, me.Body.String(), "password")

    require.NoError(t, users.SetActive(t.Context(), 1, false))
    assert.Equal(t, http.StatusForbidden,
        doJSON(e, http.MethodPost, "/v1/auth/login", `{"email":"ada@example.com","password":"longenough"}`).Code)
}

func TestRefresh_RotatesToken(t *testing.T) {
    e, _, tokens := newAuthEcho(t)
    rec := doJSON(e, http.MethodPost, "/v1/auth/register", `{"email":"ada@example.com","password":"longenough"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    _, refresh := tokensFrom(t, rec)

    rec = doJSON(e, http.MethodPost, "/v1/auth/refresh-access", `{"refresh_token":"`+refresh+`"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 1, tokens.active(1))

    rec = doJSON(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+refresh+`"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    _, rotated := tokensFrom(t, rec)
    assert.NotEqual(t, refresh, rotated)
    assert.Equal(t, 1, tokens.active(1))

    assert.Equal(t, http.StatusUnauthorized,
        doJSON(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":"`+refresh+`"}`).Code)
    assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/v1/auth/refresh", `{}`).Code)
}

func TestLogout(t *testing.T) {
    e, _, tokens := newAuthEcho(t)
    rec := doJSON(e, http.MethodPost, "/v1/auth/register", `{"email":"ada@example.com","password":"longenough"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    access, refresh := tokensFrom(t, rec)
    rec = doJSON(e, http.MethodPost, "/v1/auth/login", `{"email":"ada@example.com","password":"longenough"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, 2, tokens.active(1))

    rec = doJSON(e, http.MethodPost, "/v1/auth/logout", `{"refresh_token":"`+refresh+`"}`)
    assert.Equal(t, http.StatusNoContent, rec.Code)
    assert.Equal(t, 1, tokens.active(1))

    req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", strings.NewReader(""))
    req.Header.Set("Authorization", "Bearer "+access)
    out := httptest.NewRecorder()
    e.ServeHTTP(out, req)
    assert.Equal(t, http.StatusNoContent, out.Code)
    assert.Equal(t, 0, tokens.active(1))

    assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/v1/auth/logout", `{}`).Code)
}
