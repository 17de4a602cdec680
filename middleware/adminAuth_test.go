package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agencyhub/utils"

	"github.com/gin-gonic/gin"
)

const testSecret = "test-secret"

func newAuthRouter(auth *AdminAuthorizer, optional bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mw := auth.RequireAdmin()
	if optional {
		mw = auth.OptionalAdmin()
	}
	r.GET("/check", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin": IsAdmin(c), "adminID": c.GetString(ContextAdminID)})
	})
	return r
}

func doCheck(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustToken(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.GenerateToken([]byte(secret), "admin@agency.test", role, ttl)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

func TestAdminAuthorizer(t *testing.T) {
	revoked := utils.NewMemoryRevocationStore()
	auth := NewAdminAuthorizer(testSecret, revoked, nil)

	valid := mustToken(t, testSecret, utils.RoleAdmin, time.Hour)
	signedOut := mustToken(t, testSecret, utils.RoleAdmin, 2*time.Hour)
	if err := revoked.Revoke(context.Background(), utils.HashToken(signedOut), time.Hour); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	tests := []struct {
		name     string
		optional bool
		header   string
		want     int
	}{
		{"required without header", false, "", http.StatusUnauthorized},
		{"required with admin token", false, "Bearer " + valid, http.StatusOK},
		{"required with client role", false, "Bearer " + mustToken(t, testSecret, "client", time.Hour), http.StatusUnauthorized},
		{"required with foreign signature", false, "Bearer " + mustToken(t, "other", utils.RoleAdmin, time.Hour), http.StatusUnauthorized},
		{"required with expired token", false, "Bearer " + mustToken(t, testSecret, utils.RoleAdmin, -time.Minute), http.StatusUnauthorized},
		{"required with revoked token", false, "Bearer " + signedOut, http.StatusUnauthorized},
		{"required with basic scheme", false, "Basic abc", http.StatusUnauthorized},
		{"optional without header", true, "", http.StatusOK},
		{"optional with admin token", true, "Bearer " + valid, http.StatusOK},
		{"optional with garbage token", true, "Bearer garbage", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doCheck(newAuthRouter(auth, tt.optional), tt.header)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestOptionalAdminMarksContext(t *testing.T) {
	auth := NewAdminAuthorizer(testSecret, nil, nil)
	r := newAuthRouter(auth, true)

	w := doCheck(r, "")
	if w.Body.String() != `{"admin":false,"adminID":""}` {
		t.Fatalf("anonymous body = %s", w.Body.String())
	}

	w = doCheck(r, "Bearer "+mustToken(t, testSecret, utils.RoleAdmin, time.Hour))
	if w.Body.String() != `{"admin":true,"adminID":"admin@agency.test"}` {
		t.Fatalf("admin body = %s", w.Body.String())
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("other client limited: %d", w.Code)
	}
}

func TestRateLimitIgnoresForwardedHeadersFromUntrustedPeers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if err := r.SetTrustedProxies(nil); err != nil {
		t.Fatalf("SetTrustedProxies: %v", err)
	}
	r.Use(RateLimitMiddleware(1))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 2)
	for _, forwarded := range []string{"203.0.113.10", "203.0.113.11"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.9:4000"
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("spoofed X-Forwarded-For bypassed the limiter: codes %v", codes)
	}
}
