package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/services"
)

func contextWithTimeout(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), timeout)
}

func TestAttemptLimiterWindowAndReset(t *testing.T) {
	t.Parallel()

	limiter := newAttemptLimiter()
	key := "127.0.0.1"
	window := time.Hour
	now := time.Now().UTC()

	limiter.addFailure(key, now.Add(-2*time.Hour), window)
	if limiter.tooManyRecent(key, now, 1, window) {
		t.Fatal("expected old attempt to be pruned from active window")
	}

	limiter.addFailure(key, now.Add(-30*time.Minute), window)
	if !limiter.tooManyRecent(key, now, 1, window) {
		t.Fatal("expected one recent attempt to hit limit 1")
	}

	limiter.reset(key)
	if limiter.tooManyRecent(key, now, 1, window) {
		t.Fatal("expected no attempts after reset")
	}
}

func TestSecureCookieCodecBindsPurpose(t *testing.T) {
	t.Parallel()

	codec, err := newSecureCookieCodec([]byte(testSecretKey))
	if err != nil {
		t.Fatalf("init codec: %v", err)
	}

	sealed, err := codec.seal("auth", []byte("token-value"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	opened, err := codec.open("auth", sealed)
	if err != nil || string(opened) != "token-value" {
		t.Fatalf("expected round trip, got %q err=%v", opened, err)
	}

	if _, err := codec.open("language", sealed); !errors.Is(err, errInvalidSecureCookieValue) {
		t.Fatalf("expected purpose mismatch to fail, got %v", err)
	}

	other, err := newSecureCookieCodec([]byte("another-secret-another-secret-xx"))
	if err != nil {
		t.Fatalf("init codec: %v", err)
	}
	if _, err := other.open("auth", sealed); !errors.Is(err, errInvalidSecureCookieValue) {
		t.Fatalf("expected foreign key to fail, got %v", err)
	}
	if _, err := codec.open("auth", "v2.abc"); !errors.Is(err, errInvalidSecureCookieValue) {
		t.Fatalf("expected unknown version to fail, got %v", err)
	}
}

func TestRespondServiceErrorStatuses(t *testing.T) {
	t.Parallel()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	handler := &Handler{logger: logger}

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", services.NewValidationError("age", "is required"), http.StatusBadRequest},
		{"weak password", services.ErrWeakPassword, http.StatusBadRequest},
		{"credentials", services.ErrAuthCredentialsInvalid, http.StatusUnauthorized},
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized},
		{"unauthorized", services.ErrUnauthorized, http.StatusForbidden},
		{"not found", services.ErrNotFound, http.StatusNotFound},
		{"invalid state", services.ErrInvalidState, http.StatusConflict},
		{"email taken", services.ErrAuthEmailTaken, http.StatusConflict},
		{"storage", errors.Join(services.ErrStorage, errors.New("bucket gone")), http.StatusBadGateway},
		{"transport", errors.Join(services.ErrTransport, errors.New("db down")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return handler.respondServiceError(c, tc.err)
			})
			response, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer response.Body.Close()
			if response.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, response.StatusCode)
			}
		})
	}
}

func TestReadImageUploadFailuresAreTransportErrors(t *testing.T) {
	t.Parallel()

	// No in-memory content and no temp file: Open fails.
	header := &multipart.FileHeader{Filename: "ecg.png", Size: 16}
	_, err := readImageUpload(header)
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	handler := &Handler{logger: logger}
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return handler.respondServiceError(c, err)
	})
	response, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected %d, got %d", http.StatusServiceUnavailable, response.StatusCode)
	}
}

func TestHealthAndNotFound(t *testing.T) {
	env := newTestApp(t)

	if got := env.doJSON(t, http.MethodGet, "/healthz", "", nil).StatusCode; got != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", got)
	}
	missing := env.doJSON(t, http.MethodGet, "/api/nowhere", "", nil)
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.StatusCode)
	}
}
