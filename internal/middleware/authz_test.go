package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskflow/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func setupProtectedRouter(role string, hit *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/protected", middleware.AuthzMiddleware(middleware.AuthzConfig{
		Secret: testSecret,
		Role:   role,
	}), func(c *gin.Context) {
		*hit = true
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func doAuth(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthzMissingHeader(t *testing.T) {
	var hit bool
	router := setupProtectedRouter("admin", &hit)

	w := doAuth(router, "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
	if hit {
		t.Error("handler must not run without a token")
	}
}

func TestAuthzMalformedHeader(t *testing.T) {
	var hit bool
	router := setupProtectedRouter("admin", &hit)

	w := doAuth(router, "Basic abc123")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthzBadSignature(t *testing.T) {
	var hit bool
	router := setupProtectedRouter("admin", &hit)

	token := signToken(t, "wrong-secret", jwt.MapClaims{
		"user_id": "u1",
		"role":    "Admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	w := doAuth(router, "Bearer "+token)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
	if hit {
		t.Error("handler must not run with a forged token")
	}
}

func TestAuthzExpiredToken(t *testing.T) {
	var hit bool
	router := setupProtectedRouter("admin", &hit)

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "u1",
		"role":    "Admin",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})
	w := doAuth(router, "Bearer "+token)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthzNonAdminForbidden(t *testing.T) {
	var hit bool
	router := setupProtectedRouter("admin", &hit)

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "u1",
		"role":    "User",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	w := doAuth(router, "Bearer "+token)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
	if hit {
		t.Error("handler must not run for a non-admin caller")
	}
}

func TestAuthzAdminRoleCaseInsensitive(t *testing.T) {
	for _, role := range []string{"Admin", "admin", "ADMIN"} {
		var hit bool
		router := setupProtectedRouter("admin", &hit)

		token := signToken(t, testSecret, jwt.MapClaims{
			"user_id": "u1",
			"role":    role,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		w := doAuth(router, "Bearer "+token)

		if w.Code != http.StatusOK {
			t.Errorf("role %q: expected status %d, got %d", role, http.StatusOK, w.Code)
		}
		if !hit {
			t.Errorf("role %q: handler did not run", role)
		}
	}
}

func TestAuthzNoRoleRequirement(t *testing.T) {
	var hit bool
	router := setupProtectedRouter("", &hit)

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": "u1",
		"role":    "User",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	w := doAuth(router, "Bearer "+token)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !hit {
		t.Error("handler did not run")
	}
}
