package main

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/hostel-allotment/internal/allotment"
	"github.com/yourusername/hostel-allotment/internal/auth"
	"github.com/yourusername/hostel-allotment/internal/config"
	"github.com/yourusername/hostel-allotment/internal/store"
	"github.com/yourusername/hostel-allotment/internal/throttle"
)

func newRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		SessionName:    "TU_HAA",
		SessionSecret:  "0123456789abcdef0123456789abcdef",
		CookiePath:     "/",
		PasswordScheme: config.PasswordSchemeSHA512,
		LoginCooldown:  900 * time.Second,
		SessionTimeout: 900 * time.Second,
		LogoutBackdate: time.Hour,
		CaptchaAfter:   3,
		PagePrefix:     "/pages",
	}

	db, err := store.Open(filepath.Join(t.TempDir(), "haa.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sessionMiddleware, err := auth.SessionMiddleware(cfg)
	if err != nil {
		t.Fatalf("failed to create session middleware: %v", err)
	}

	manager := auth.NewManager(
		auth.NewService(db, auth.OptionsFromConfig(cfg)),
		throttle.NewMemoryLimiter(throttle.Policy{MaxAttempts: 5, Window: time.Minute, Lockout: time.Minute}),
		cfg.PagePrefix,
		log.New(io.Discard, "", 0),
	)

	router := gin.New()
	router.Use(requestID(), sessionMiddleware)
	setupRoutes(router, cfg, manager)
	return router, db
}

func TestHealthAndRequestID(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "fixed-id")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "fixed-id" {
		t.Fatalf("request id not propagated: %s", got)
	}
}

func TestGroupLoginAgainstSQLite(t *testing.T) {
	router, db := newRouter(t)
	if err := db.CreateGroup(store.Group{
		GroupID:         "g-7",
		Password:        auth.HashPassword("pass"),
		GroupSize:       2,
		AllotmentStatus: string(allotment.StatusAllot),
	}); err != nil {
		t.Fatalf("failed to seed group: %v", err)
	}

	body := bytes.NewBufferString(`{"loginId":"g-7","password":"pass"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	group, err := db.GroupByID("g-7")
	if err != nil || group == nil {
		t.Fatalf("failed to reload group: %v", err)
	}
	if time.Since(time.Unix(group.LastLogin, 0)) > time.Minute {
		t.Fatalf("last_login was not stamped: %d", group.LastLogin)
	}

	req = httptest.NewRequest(http.MethodGet, "/pages/map", nil)
	req.Header.Set("User-Agent", "test-agent")
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/pages/allot" {
		t.Fatalf("expected redirect to allot, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
}
