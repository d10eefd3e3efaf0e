package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
)

type fakeValidator struct {
	claims interface{}
	err    error
	tokens []string
}

func (f *fakeValidator) ValidateToken(ctx context.Context, token string) (interface{}, error) {
	f.tokens = append(f.tokens, token)
	return f.claims, f.err
}

func TestGetUserID(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		setup    func(c echo.Context)
		expected string
	}{
		{
			name: "returns user id when present",
			setup: func(c echo.Context) {
				c.SetRequest(c.Request().WithContext(WithUserID(c.Request().Context(), "auth0|12345")))
			},
			expected: "auth0|12345",
		},
		{
			name:     "returns empty string when not present",
			setup:    func(c echo.Context) {},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			tt.setup(c)

			result := GetUserID(c)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestGetCustomClaims(t *testing.T) {
	e := echo.New()

	t.Run("returns custom claims when present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|test"},
			CustomClaims:     &CustomClaims{Email: "test@example.com", Name: "Test User"},
		}
		ctx := context.WithValue(c.Request().Context(), ClaimsKey, claims)
		c.SetRequest(c.Request().WithContext(ctx))

		result := GetCustomClaims(c)
		if result == nil {
			t.Fatal("Expected custom claims, got nil")
		}
		if result.Email != "test@example.com" {
			t.Errorf("Expected email 'test@example.com', got %q", result.Email)
		}
		if GetClaims(c).RegisteredClaims.Subject != "auth0|test" {
			t.Errorf("Expected subject 'auth0|test'")
		}
	})

	t.Run("returns nil when claims not present", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if GetCustomClaims(c) != nil {
			t.Error("Expected nil, got custom claims")
		}
		if GetClaims(c) != nil {
			t.Error("Expected nil, got claims")
		}
	})
}

func TestCustomClaims_Validate(t *testing.T) {
	claims := &CustomClaims{Email: "test@example.com"}
	if err := claims.Validate(context.Background()); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	validClaims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{Subject: "auth0|alice"},
	}

	tests := []struct {
		name       string
		header     string
		validator  *fakeValidator
		wantStatus int
		wantUserID string
	}{
		{"missing header", "", &fakeValidator{claims: validClaims}, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", &fakeValidator{claims: validClaims}, http.StatusUnauthorized, ""},
		{"invalid token", "Bearer bad", &fakeValidator{err: errors.New("expired")}, http.StatusUnauthorized, ""},
		{"unexpected claims type", "Bearer tok", &fakeValidator{claims: "nope"}, http.StatusUnauthorized, ""},
		{
			"missing subject", "Bearer tok",
			&fakeValidator{claims: &validator.ValidatedClaims{}},
			http.StatusUnauthorized, "",
		},
		{"valid token", "Bearer tok", &fakeValidator{claims: validClaims}, http.StatusOK, "auth0|alice"},
		{"lowercase scheme", "bearer tok", &fakeValidator{claims: validClaims}, http.StatusOK, "auth0|alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var gotUserID string
			handler := NewAuthMiddlewareWithValidator(tt.validator).Authenticate()(func(c echo.Context) error {
				gotUserID = GetUserID(c)
				return c.NoContent(http.StatusOK)
			})

			if err := handler(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if gotUserID != tt.wantUserID {
				t.Errorf("Expected user %q, got %q", tt.wantUserID, gotUserID)
			}
		})
	}
}
