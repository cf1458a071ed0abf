package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/platehub-backend/internal/authz"
	"github.com/angelmondragon/platehub-backend/pkg/auth"
	"github.com/angelmondragon/platehub-backend/pkg/config"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func mintTestToken(t *testing.T, payload auth.AccessTokenPayload) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, logger.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSeedsActor(t *testing.T) {
	userID := uuid.New()
	vendorID := uuid.New()
	token := mintTestToken(t, auth.AccessTokenPayload{UserID: userID, Role: enums.ActorRoleVendor, VendorID: &vendorID})

	var got authz.Actor
	handler := Auth(testJWT, logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			t.Fatal("expected actor in context")
		}
		got = actor
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.ID != userID || got.Role != enums.ActorRoleVendor {
		t.Fatalf("unexpected actor %+v", got)
	}
	if got.VendorID == nil || *got.VendorID != vendorID {
		t.Fatal("vendor id missing from actor")
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, enums.ActorRoleAdmin, enums.ActorRoleVendor)(okHandler())

	cases := []struct {
		name   string
		actor  *authz.Actor
		status int
	}{
		{name: "anonymous", status: http.StatusUnauthorized},
		{name: "customer", actor: &authz.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer}, status: http.StatusForbidden},
		{name: "admin", actor: &authz.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin}, status: http.StatusOK},
		{name: "vendor", actor: &authz.Actor{ID: uuid.New(), Role: enums.ActorRoleVendor}, status: http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.actor != nil {
			req = req.WithContext(WithActor(req.Context(), *tc.actor))
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tc.status {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.status, resp.Code)
		}
	}
}

func idempotencyRouter(seen *string) http.Handler {
	r := chi.NewRouter()
	handler := func(w http.ResponseWriter, r *http.Request) {
		*seen = IdempotencyKeyFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.With(IdempotencyKey(nil)).Post("/{orderId}/payment/{action}", handler)
		r.With(IdempotencyKey(nil)).Post("/{orderId}/cancel", handler)
	})
	return r
}

func TestIdempotencyKeyRequiredOnPaymentRoutes(t *testing.T) {
	var seen string
	router := idempotencyRouter(&seen)
	path := "/api/v1/orders/" + uuid.NewString() + "/payment/mark-paid"

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, path, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without key, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Header.Set("Idempotency-Key", " pay-1 ")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", resp.Code)
	}
	if seen != "pay-1" {
		t.Fatalf("expected trimmed key in context, got %q", seen)
	}
}

func TestIdempotencyKeyOptionalElsewhere(t *testing.T) {
	var seen string
	router := idempotencyRouter(&seen)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/cancel", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if seen != "" {
		t.Fatalf("expected no key, got %q", seen)
	}
}

func TestIdempotencyKeyTooLong(t *testing.T) {
	var seen string
	router := idempotencyRouter(&seen)
	long := make([]byte, maxIdempotencyKeyLen+1)
	for i := range long {
		long[i] = 'k'
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/payment/refund", nil)
	req.Header.Set("Idempotency-Key", string(long))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"code":"INTERNAL"`) || strings.Contains(resp.Body.String(), "boom") {
		t.Fatalf("expected opaque internal error, got %s", resp.Body.String())
	}
}

func TestRecovererReraisesAbortHandler(t *testing.T) {
	handler := Recoverer(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	t.Fatal("expected panic")
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	handler := RequestID(logger.Nop())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if got := resp.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(resp.Header().Get("X-Request-Id")); err != nil {
		t.Fatalf("expected generated uuid request id: %v", err)
	}

	for _, unsafe := range []string{"id with spaces", "a\"b", strings.Repeat("x", 129)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", unsafe)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if _, err := uuid.Parse(resp.Header().Get("X-Request-Id")); err != nil {
			t.Fatalf("expected %q replaced by a uuid, got %q", unsafe, resp.Header().Get("X-Request-Id"))
		}
	}
}
