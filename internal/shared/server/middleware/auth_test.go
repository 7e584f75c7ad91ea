package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"contadoc-backend/internal/shared/auth"
	"contadoc-backend/internal/users"
)

func authRouter(t *testing.T, repo users.Repo) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(repo))
	router.GET("/api/v1/documents", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userId":    UserIDFromContext(c),
			"role":      string(RoleFromContext(c)),
			"companyId": CompanyIDFromContext(c),
		})
	})
	return router
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := auth.SignJWT(auth.Claims{Sub: sub})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return token
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	router := authRouter(t, users.NewMemoryRepo())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	router := authRouter(t, users.NewMemoryRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	router := authRouter(t, users.NewMemoryRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthResolvesUserRecord(t *testing.T) {
	repo := users.NewMemoryRepo()
	repo.Add(users.User{
		ID:        "user-1",
		Email:     "maria@example.com",
		Role:      users.RoleHR,
		CompanyID: "co-1",
		Active:    true,
	})
	router := authRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := resp.Body.String()
	for _, want := range []string{`"userId":"user-1"`, `"role":"HR"`, `"companyId":"co-1"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
}

func TestAuthRejectsInactiveUser(t *testing.T) {
	repo := users.NewMemoryRepo()
	repo.Add(users.User{ID: "user-1", Role: users.RoleEmployee, Active: false})
	router := authRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthRejectsUnknownUser(t *testing.T) {
	router := authRouter(t, users.NewMemoryRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "ghost"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}
