package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/weave-backend/internal/platform/ctxutil"
	"github.com/yungbote/weave-backend/internal/platform/logger"
	"github.com/yungbote/weave-backend/internal/services"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func authedEngine(t *testing.T, secret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testLogger(t)
	am := NewAuthMiddleware(log, services.NewAuthService(log, secret))
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/whoami", am.RequireAuth(), func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, rd.UserID.String())
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	r := authedEngine(t, "k")
	uid := uuid.New()
	tok, err := services.SignToken("k", uid, time.Minute)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}

	cases := []struct {
		name   string
		target string
		header string
		status int
	}{
		{name: "bearer", target: "/whoami", header: "Bearer " + tok, status: http.StatusOK},
		{name: "query token", target: "/whoami?token=" + tok, status: http.StatusOK},
		{name: "missing", target: "/whoami", status: http.StatusUnauthorized},
		{name: "garbage", target: "/whoami", header: "Bearer nope", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.target, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("%s: status got=%d want=%d body=%s", tc.name, rec.Code, tc.status, rec.Body.String())
		}
		if tc.status == http.StatusOK && rec.Body.String() != uid.String() {
			t.Fatalf("%s: actor got=%s want=%s", tc.name, rec.Body.String(), uid)
		}
		if rec.Header().Get(headerRequestID) == "" {
			t.Fatalf("%s: request id header missing", tc.name)
		}
	}
}

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RPS: 1, Burst: 2})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("burst should admit two requests")
	}
	if rl.Allow("a") {
		t.Fatalf("third request inside the same instant should be limited")
	}
	if !rl.Allow("b") {
		t.Fatalf("keys must not share buckets")
	}
	rl.now = func() time.Time { return base.Add(time.Second) }
	if !rl.Allow("a") {
		t.Fatalf("bucket should refill after a second")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(RateLimitConfig{RPS: 0.001, Burst: 1})
	r := gin.New()
	r.POST("/send", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/send", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes: %v", codes)
	}
}
