package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, userID string) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))
	return router, svc
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, "")

	resp := doJSON(router, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "ada@example.com", "password": "analytical-engine", "firstName": "Ada",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var session Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if session.Token == "" {
		t.Fatalf("expected token in response")
	}
	if bytes.Contains(resp.Body.Bytes(), []byte("passwordHash")) {
		t.Fatalf("password hash must not be serialized")
	}

	resp = doJSON(router, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "ada@example.com", "password": "analytical-engine", "firstName": "Ada",
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestRegisterValidationDetails(t *testing.T) {
	router, _ := newTestRouter(t, "")

	resp := doJSON(router, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "bad", "password": "short", "firstName": "Ada",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string              `json:"code"`
			Details []map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != "validation_error" || len(payload.Error.Details) != 2 {
		t.Fatalf("unexpected error payload: %+v", payload.Error)
	}
	if payload.Error.Details[0]["field"] != "email" {
		t.Fatalf("expected email field first, got %v", payload.Error.Details[0])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router, svc := newTestRouter(t, "")
	registerAda(t, svc)

	resp := doJSON(router, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestSettingsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(t)
	session := registerAda(t, svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", session.User.ID)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))

	resp := doJSON(router, http.MethodPut, "/api/v1/me/settings", map[string]string{"preferredModel": "not-a-model"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp = doJSON(router, http.MethodPut, "/api/v1/me/settings", map[string]string{"preferredModel": "gpt-4o-mini"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)
	var user User
	if err := json.Unmarshal(me.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.PreferredModel != "gpt-4o-mini" {
		t.Fatalf("expected saved model, got %q", user.PreferredModel)
	}
}

func TestForgotPasswordAlwaysAccepted(t *testing.T) {
	router, _ := newTestRouter(t, "")
	resp := doJSON(router, http.MethodPost, "/api/v1/auth/password/forgot", map[string]string{"email": "ghost@example.com"})
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}
}
