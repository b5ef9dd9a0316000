package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qoricharge/storefront/internal/geo"
	"github.com/qoricharge/storefront/internal/hash"
	"github.com/qoricharge/storefront/internal/lock"
	"github.com/qoricharge/storefront/internal/models"
	"github.com/qoricharge/storefront/internal/notify"
	ordersvc "github.com/qoricharge/storefront/internal/service/order"
	presencesvc "github.com/qoricharge/storefront/internal/service/presence"
	"github.com/qoricharge/storefront/internal/service/token"
)

type spyPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (s *spyPublisher) PublishEvent(_ context.Context, key string, _ any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return nil
}

func (s *spyPublisher) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Checkout *CheckoutHandler
	Admin    *AdminHandler
	Auth     *AuthHandler
	Presence *PresenceHandler
	Tokens   *token.Service
	Events   *spyPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Customer{}, &models.Order{}, &models.OrderItem{},
		&models.UserPresence{}, &models.AdminUser{}, &models.RefreshToken{},
	))

	tbl, err := geo.Load()
	require.NoError(t, err)

	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	events := &spyPublisher{}
	svc := &ordersvc.Service{DB: db, Geo: tbl, Locker: lock.NewMemoryLocker()}

	return &testEnv{
		T:        t,
		E:        echo.New(),
		DB:       db,
		Checkout: &CheckoutHandler{Svc: svc, Notifier: &notify.Notifier{Producer: events}},
		Admin:    &AdminHandler{DB: db},
		Auth:     &AuthHandler{DB: db, Tokens: tokens},
		Presence: &PresenceHandler{Svc: &presencesvc.Service{DB: db}},
		Tokens:   tokens,
		Events:   events,
	}
}

func (env *testEnv) doJSONRequest(method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) seedAdmin(username, password string) {
	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)
	require.NoError(env.T, env.DB.Create(&models.AdminUser{
		Username:     username,
		PasswordHash: pwHash,
		Role:         "admin",
	}).Error)
}
