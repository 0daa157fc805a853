package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mdt/mdt/internal/platform/apperr"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", apperr.Conflict("Duplicate Hospital Number"), http.StatusConflict, "CONFLICT"},
		{"wrapped not found", fmt.Errorf("load: %w", apperr.NotFound("mdt_case", "5")), http.StatusNotFound, "NOT_FOUND"},
		{"validation", apperr.Validation("date_of_birth", "bad"), http.StatusUnprocessableEntity, "VALIDATION_FAILED"},
		{"unauthenticated", apperr.Unauthenticated("login"), http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"forbidden", apperr.Forbidden("admin only"), http.StatusForbidden, "FORBIDDEN"},
		{"unavailable", apperr.Unavailable(errors.New("dial tcp")), http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"echo 404", echo.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"echo 429", echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), http.StatusTooManyRequests, "RATE_LIMITED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/x", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			ErrorHandler(zerolog.Nop(), nil)(tt.err, c)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, body.Code)
			}
			if body.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

func TestErrorHandler_HidesCause(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(zerolog.Nop(), nil)(apperr.Internal(errors.New("password=hunter2")), c)

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Message != "internal server error" {
		t.Errorf("expected generic message, got %q", body.Message)
	}
}

func TestErrorHandler_UnavailableHook(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	calls := 0
	h := ErrorHandler(zerolog.Nop(), func() { calls++ })
	h(apperr.Unavailable(errors.New("timeout")), c)

	if calls != 1 {
		t.Errorf("expected hook to run once, got %d", calls)
	}

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Message != "service temporarily unavailable, please retry later" {
		t.Errorf("unexpected message %q", body.Message)
	}
}

func TestErrorHandler_LoginHint(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(zerolog.Nop(), nil)(apperr.Unauthenticated("authentication required"), c)

	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Details["login"] != "/api/v1/auth/login" {
		t.Errorf("expected login hint, got %v", body.Details)
	}
}

func TestErrorHandler_Head(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodHead, "/", nil), rec)

	ErrorHandler(zerolog.Nop(), nil)(apperr.NotFound("patient", "1"), c)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Error("expected empty body for HEAD")
	}
}
