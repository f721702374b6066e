package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/comment-notifier/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorHandlerMapsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "fiber error", err: fiber.NewError(fiber.StatusNotFound, "missing"), wantCode: 404, wantBody: "missing"},
		{name: "validation", err: fmt.Errorf("%w: bad page", domain.ErrValidation), wantCode: 400, wantBody: "bad page"},
		{name: "not found", err: domain.ErrNotFound, wantCode: 404, wantBody: "not found"},
		{name: "conflict", err: domain.ErrInvalidTransition, wantCode: 409},
		{name: "internal", err: errors.New("db password leaked"), wantCode: 500, wantBody: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.WarnLevel)
			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.New(core))})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()

			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if tt.wantBody != "" && !strings.Contains(string(body), tt.wantBody) {
				t.Fatalf("body = %s, want it to contain %q", body, tt.wantBody)
			}
			if strings.Contains(string(body), "leaked") {
				t.Fatalf("internal error text exposed: %s", body)
			}
			if logs.Len() != 1 {
				t.Fatalf("log entries = %d, want 1", logs.Len())
			}
		})
	}
}
