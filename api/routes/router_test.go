package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/hmansour/farmgate-pos/pkg/auth"
	"github.com/hmansour/farmgate-pos/pkg/config"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

func testRouter(t *testing.T) (http.Handler, config.JWTConfig) {
	t.Helper()
	jwtCfg := config.JWTConfig{
		Secret:            "router-test-secret-32-bytes-min!",
		Issuer:            "farmgate-test",
		ExpirationMinutes: 30,
	}
	cfg := &config.Config{
		App: config.AppConfig{Env: "dev", Port: "0"},
		JWT: jwtCfg,
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(cfg, logg, nil, nil, Services{}, nil), jwtCfg
}

func TestHealthRoutesArePublic(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/health/live: expected 200, got %d", rec.Code)
	}

	// No database or redis wired here, readiness reports degraded but
	// never demands credentials.
	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/health/ready: expected 503 without dependencies, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := testRouter(t)

	paths := []string{
		"/api/v1/trucks",
		"/api/v1/customers",
		"/api/v1/invoices",
		"/api/v1/reconciliations",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestOperatorRoutesRequireAdminRole(t *testing.T) {
	router, jwtCfg := testRouter(t)

	token, err := pkgauth.MintAccessToken(jwtCfg, time.Now(), pkgauth.AccessTokenPayload{
		OperatorID: uuid.New(),
		LoginName:  "cashier",
		Role:       enums.OperatorRoleCashier,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/operators", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier, got %d", rec.Code)
	}
}

func TestLoginRouteIsPublic(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Reaches the handler (nil service responds 500), not the auth gate.
	if rec.Code == http.StatusUnauthorized {
		t.Fatalf("login should not require a token, got %d", rec.Code)
	}
}
