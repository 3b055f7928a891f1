package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doRequest(mw echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	token := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "nurse-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  "Jane",
		Roles: []string{RoleNurse},
	})

	rec := doRequest(JWTMiddleware(JWTConfig{SigningKey: testKey}), "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestJWTMiddlewareRejectsMissingHeader(t *testing.T) {
	rec := doRequest(JWTMiddleware(JWTConfig{SigningKey: testKey}), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddlewareRejectsBadSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x"},
	})
	signed, _ := token.SignedString([]byte("wrong-key"))

	rec := doRequest(JWTMiddleware(JWTConfig{SigningKey: testKey}), "Bearer "+signed)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(userRoles []string, required ...string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		token := signToken(t, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Roles: userRoles,
		})
		req.Header.Set("Authorization", "Bearer "+token)

		chain := JWTMiddleware(JWTConfig{SigningKey: testKey})(
			RequireRole(required...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}))
		if err := chain(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec.Code
	}

	if code := run([]string{RoleNurse}, RoleNurse); code != http.StatusOK {
		t.Errorf("nurse should access nurse route, got %d", code)
	}
	if code := run([]string{RoleCHV}, RoleNurse); code != http.StatusForbidden {
		t.Errorf("chv should not access nurse-only route, got %d", code)
	}
	if code := run([]string{RoleAdmin}, RoleNurse); code != http.StatusOK {
		t.Errorf("admin should access any route, got %d", code)
	}
}
