package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/echoloop-backend/internal/platform/ctxutil"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject string, secret string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthRouter(t *testing.T) (*gin.Engine, *uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	am := NewAuthMiddleware(log, testSecret)

	var seen uuid.UUID
	r := gin.New()
	r.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd != nil {
			seen = rd.UserID
		}
		c.Status(http.StatusNoContent)
	})
	return r, &seen
}

func TestRequireAuthAcceptsBearerToken(t *testing.T) {
	r, seen := newAuthRouter(t)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID.String(), testSecret, time.Minute))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if *seen != userID {
		t.Fatalf("request data user = %s, want %s", *seen, userID)
	}
}

func TestRequireAuthAcceptsQueryToken(t *testing.T) {
	r, _ := newAuthRouter(t)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+signToken(t, userID.String(), testSecret, time.Minute), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	r, _ := newAuthRouter(t)

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"expired token", signToken(t, uuid.New().String(), testSecret, -time.Minute)},
		{"wrong secret", signToken(t, uuid.New().String(), "other-secret", time.Minute)},
		{"non-uuid subject", signToken(t, "alice", testSecret, time.Minute)},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", tc.name, w.Code)
		}
	}
}
