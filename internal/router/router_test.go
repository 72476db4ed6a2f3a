package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"go.uber.org/zap"

	"lenstrack/backend/internal/config"
	"lenstrack/backend/internal/db"
	"lenstrack/backend/internal/handler"
	"lenstrack/backend/internal/repository"
	"lenstrack/backend/internal/router"
	"lenstrack/backend/internal/service"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type lensEnvelope struct {
	Lens struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		RemainingDays *int   `json:"remainingDays"`
	} `json:"lens"`
}

type collectionEnvelope struct {
	Lenses []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"lenses"`
	CurrentLens *struct {
		ID string `json:"id"`
	} `json:"currentLens"`
}

type swapEnvelope struct {
	Current struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"current"`
	Previous *struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"previous"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestLensLifecycleOverHTTP(t *testing.T) {
	engine := setupTestEngine(t)

	user := registerUser(t, engine, "wearer@example.com", "123456")

	// Taking off with nothing in use is a domain error, not a crash.
	status, raw := requestJSON(t, engine, http.MethodPost, "/api/lenses/current/take-off", user.Token, map[string]string{})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 without current lens, got %d: %s", status, string(raw))
	}
	var noCurrent apiErrorEnvelope
	if err := json.Unmarshal(raw, &noCurrent); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if noCurrent.Error.Code != "no_current_lens" {
		t.Fatalf("expected no_current_lens, got %s", noCurrent.Error.Code)
	}

	// Add a monthly lens and start wearing it.
	status, raw = requestJSON(t, engine, http.MethodPost, "/api/lenses", user.Token, map[string]string{
		"brand":           "Biofinity",
		"wearPeriodTitle": "monthly",
		"status":          "in-use",
	})
	if status != http.StatusCreated {
		t.Fatalf("add lens failed with status %d: %s", status, string(raw))
	}
	var added lensEnvelope
	if err := json.Unmarshal(raw, &added); err != nil {
		t.Fatalf("unmarshal add response: %v", err)
	}
	if added.Lens.Status != "in-use" {
		t.Fatalf("expected in-use after add, got %s", added.Lens.Status)
	}
	if added.Lens.RemainingDays == nil || *added.Lens.RemainingDays != 30 {
		t.Fatalf("expected 30 remaining days, got %v", added.Lens.RemainingDays)
	}

	// Add a second lens and swap to it; the first is demoted.
	status, raw = requestJSON(t, engine, http.MethodPost, "/api/lenses", user.Token, map[string]string{
		"brand":           "Acuvue Oasys",
		"wearPeriodTitle": "two-week",
		"status":          "opened",
	})
	if status != http.StatusCreated {
		t.Fatalf("add second lens failed with status %d: %s", status, string(raw))
	}
	var second lensEnvelope
	if err := json.Unmarshal(raw, &second); err != nil {
		t.Fatalf("unmarshal second add response: %v", err)
	}

	status, raw = requestJSON(t, engine, http.MethodPost, "/api/lenses/"+second.Lens.ID+"/swap", user.Token, map[string]string{})
	if status != http.StatusOK {
		t.Fatalf("swap failed with status %d: %s", status, string(raw))
	}
	var swapped swapEnvelope
	if err := json.Unmarshal(raw, &swapped); err != nil {
		t.Fatalf("unmarshal swap response: %v", err)
	}
	if swapped.Current.ID != second.Lens.ID || swapped.Current.Status != "in-use" {
		t.Fatalf("unexpected swap current: %+v", swapped.Current)
	}
	if swapped.Previous == nil || swapped.Previous.ID != added.Lens.ID || swapped.Previous.Status != "opened" {
		t.Fatalf("unexpected swap previous: %+v", swapped.Previous)
	}

	// Discard the current lens, then verify the derived current pointer.
	status, raw = requestJSON(t, engine, http.MethodPost, "/api/lenses/current/discard", user.Token, map[string]string{})
	if status != http.StatusOK {
		t.Fatalf("discard failed with status %d: %s", status, string(raw))
	}
	var discarded lensEnvelope
	if err := json.Unmarshal(raw, &discarded); err != nil {
		t.Fatalf("unmarshal discard response: %v", err)
	}
	if discarded.Lens.Status != "expired" {
		t.Fatalf("expected expired after discard, got %s", discarded.Lens.Status)
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/lenses", user.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("list failed with status %d: %s", status, string(raw))
	}
	var collection collectionEnvelope
	if err := json.Unmarshal(raw, &collection); err != nil {
		t.Fatalf("unmarshal list response: %v", err)
	}
	if len(collection.Lenses) != 2 {
		t.Fatalf("expected 2 lenses, got %d", len(collection.Lenses))
	}
	if collection.CurrentLens != nil {
		t.Fatalf("expected no current lens after discard, got %s", collection.CurrentLens.ID)
	}

	// Resuming the discarded lens is a hard lockout.
	status, raw = requestJSON(t, engine, http.MethodPost, "/api/lenses/"+second.Lens.ID+"/resume", user.Token, map[string]string{})
	if status != http.StatusConflict {
		t.Fatalf("expected 409 resuming expired lens, got %d: %s", status, string(raw))
	}
	var expiredResp apiErrorEnvelope
	if err := json.Unmarshal(raw, &expiredResp); err != nil {
		t.Fatalf("unmarshal expired response: %v", err)
	}
	if expiredResp.Error.Code != "lens_expired" {
		t.Fatalf("expected lens_expired, got %s", expiredResp.Error.Code)
	}
}

func TestUserIsolation(t *testing.T) {
	engine := setupTestEngine(t)

	user1 := registerUser(t, engine, "user1@example.com", "123456")
	user2 := registerUser(t, engine, "user2@example.com", "123456")

	status, raw := requestJSON(t, engine, http.MethodPost, "/api/lenses", user1.Token, map[string]string{
		"wearPeriodTitle": "daily",
		"status":          "in-use",
	})
	if status != http.StatusCreated {
		t.Fatalf("add lens failed with status %d: %s", status, string(raw))
	}

	status, raw = requestJSON(t, engine, http.MethodGet, "/api/lenses", user2.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("list for user2 failed with status %d", status)
	}
	var collection collectionEnvelope
	if err := json.Unmarshal(raw, &collection); err != nil {
		t.Fatalf("unmarshal list response: %v", err)
	}
	if len(collection.Lenses) != 0 {
		t.Fatalf("expected no lenses for user2, got %d", len(collection.Lenses))
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := setupTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder := httptest.NewRecorder()

	engine.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
}

func setupTestEngine(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := config.Config{
		CORSOrigins:   []string{"http://localhost:5173"},
		AuthRateLimit: 1000,
		AuthRateBurst: 1000,
	}

	userRepo := repository.NewUserRepository(database)
	lensRepo := repository.NewLensRepository(database)
	pushRepo := repository.NewPushRepository(database)

	authService := service.NewAuthService(userRepo, "test-secret", 24*time.Hour)
	lensService := service.NewLensService(lensRepo)
	notificationService := service.NewNotificationService(pushRepo, zap.NewNop())

	authHandler := handler.NewAuthHandler(authService)
	lensHandler := handler.NewLensHandler(lensService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	return router.New(cfg, zap.NewNop(), authService, authHandler, lensHandler, notificationHandler)
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
