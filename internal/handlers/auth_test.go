package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pgagates/gatesite/internal/admin"
)

func newAuthEnv(t *testing.T) *echo.Echo {
	t.Helper()
	adminService, err := admin.NewService(slog.Default(), "admin", "correct horse")
	if err != nil {
		t.Fatalf("admin.NewService: %v", err)
	}
	e := echo.New()
	NewAuthHandler(slog.Default(), adminService, "test-secret", time.Hour).Register(e)
	return e
}

func login(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	e := newAuthEnv(t)
	rec := login(e, `{"username":"admin","password":"correct horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newAuthEnv(t)
	for _, body := range []string{
		`{"username":"admin","password":"wrong"}`,
		`{"username":"intruder","password":"correct horse"}`,
	} {
		if rec := login(e, body); rec.Code != http.StatusUnauthorized {
			t.Fatalf("body %s: status = %d, want 401", body, rec.Code)
		}
	}
}

func TestLoginRequiresFields(t *testing.T) {
	e := newAuthEnv(t)
	if rec := login(e, `{"username":"","password":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
