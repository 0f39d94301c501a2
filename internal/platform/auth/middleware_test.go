package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func doRequest(t *testing.T, mw echo.MiddlewareFunc, handler echo.HandlerFunc, header string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, mw(handler)(c)
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	token, err := IssueToken(testSecret, userID, false, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var gotID uuid.UUID
	var gotAdmin bool
	handler := func(c echo.Context) error {
		gotID = UserIDFromContext(c.Request().Context())
		gotAdmin = IsAdminFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}

	_, err = doRequest(t, JWTMiddleware(testSecret), handler, "Bearer "+token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != userID {
		t.Errorf("expected user %s, got %s", userID, gotID)
	}
	if gotAdmin {
		t.Error("did not expect admin flag")
	}
}

func TestJWTMiddleware_AdminFlag(t *testing.T) {
	token, _ := IssueToken(testSecret, uuid.New(), true, time.Hour)

	var gotAdmin bool
	handler := func(c echo.Context) error {
		gotAdmin = IsAdminFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}

	if _, err := doRequest(t, JWTMiddleware(testSecret), handler, "Bearer "+token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotAdmin {
		t.Error("expected admin flag")
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	_, err := doRequest(t, JWTMiddleware(testSecret), handler, "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_MalformedHeader(t *testing.T) {
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	_, err := doRequest(t, JWTMiddleware(testSecret), handler, "Basic abc")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	token, _ := IssueToken([]byte("another-secret-another-secret-xx"), uuid.New(), false, time.Hour)
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	_, err := doRequest(t, JWTMiddleware(testSecret), handler, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	token, _ := IssueToken(testSecret, uuid.New(), false, -time.Minute)
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	_, err := doRequest(t, JWTMiddleware(testSecret), handler, "Bearer "+token)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestDevAuthMiddleware_GrantsAdmin(t *testing.T) {
	var gotAdmin bool
	var gotID uuid.UUID
	handler := func(c echo.Context) error {
		gotID = UserIDFromContext(c.Request().Context())
		gotAdmin = IsAdminFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}
	if _, err := doRequest(t, DevAuthMiddleware(), handler, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID == uuid.Nil {
		t.Error("expected dev user id")
	}
	if !gotAdmin {
		t.Error("expected admin flag in dev mode")
	}
}

func TestRequireAdmin_Forbidden(t *testing.T) {
	token, _ := IssueToken(testSecret, uuid.New(), false, time.Hour)
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	chained := JWTMiddleware(testSecret)(RequireAdmin()(handler))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := chained(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	token, _ := IssueToken(testSecret, uuid.New(), true, time.Hour)
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	chained := JWTMiddleware(testSecret)(RequireAdmin()(handler))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := chained(c); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
