package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/db"
	"github.com/terraincognita07/ecgscan/internal/i18n"
	"github.com/terraincognita07/ecgscan/internal/realtime"
	"github.com/terraincognita07/ecgscan/internal/storage"
	"gorm.io/gorm"
)

const (
	testSecretKey = "0123456789abcdef0123456789abcdef"
	testPassword  = "StrongPass1"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x00}, 32)...)

type testApp struct {
	app      *fiber.App
	database *gorm.DB
	hub      *realtime.Hub
	uploads  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithCookieSecure(t, false)
}

func newTestAppWithCookieSecure(t *testing.T, cookieSecure bool) *testApp {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "ecgscan-api-test.db"), logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	translations, err := i18n.NewManager(i18n.LangPT)
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	uploads := t.TempDir()
	blobs, err := storage.NewDisk(uploads, "/uploads")
	if err != nil {
		t.Fatalf("init disk store: %v", err)
	}
	hub := realtime.NewHub(logger)

	handler, err := NewHandler(BuildDependencies(database, blobs, hub, translations, logger), testSecretKey, cookieSecure)
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return &testApp{app: app, database: database, hub: hub, uploads: uploads}
}

func (env *testApp) do(t *testing.T, request *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := env.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", request.Method, request.URL.Path, err)
	}
	t.Cleanup(func() { _ = response.Body.Close() })
	return response
}

func (env *testApp) doJSON(t *testing.T, method string, path string, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, body)
	request.Header.Set("Content-Type", "application/json")
	return env.do(t, request, token)
}

// register creates an account through the API and returns its bearer token
// and user id.
func (env *testApp) register(t *testing.T, username string, role string) (string, string) {
	t.Helper()

	response := env.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    strings.ToLower(username) + "@ecgscan.local",
		"password": testPassword,
		"role":     role,
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", username, response.StatusCode)
	}

	payload := struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}{}
	decodeJSON(t, response, &payload)
	if payload.Token == "" || payload.User.ID == "" {
		t.Fatalf("register %s: expected token and user id, got %+v", username, payload)
	}
	return payload.Token, payload.User.ID
}

func (env *testApp) createRecord(t *testing.T, token string, fields map[string]string) *http.Response {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	part, err := writer.CreateFormFile("image", "ecg.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(pngBytes); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, "/api/records", body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return env.do(t, request, token)
}

func recordFields(patientName string, priority string) map[string]string {
	return map[string]string{
		"patient_name":  patientName,
		"age":           "54",
		"sex":           "Female",
		"has_pacemaker": "No",
		"priority":      priority,
		"notes":         "dor torácica",
	}
}

func (env *testApp) mustCreateRecord(t *testing.T, token string, patientName string, priority string) string {
	t.Helper()

	response := env.createRecord(t, token, recordFields(patientName, priority))
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("create record: expected 201, got %d", response.StatusCode)
	}
	payload := map[string]string{}
	decodeJSON(t, response, &payload)
	if payload["id"] == "" {
		t.Fatal("expected record id in response")
	}
	return payload["id"]
}

func decodeJSON(t *testing.T, response *http.Response, target any) {
	t.Helper()
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func readAPIError(t *testing.T, response *http.Response) string {
	t.Helper()
	payload := map[string]string{}
	decodeJSON(t, response, &payload)
	return payload["error"]
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
