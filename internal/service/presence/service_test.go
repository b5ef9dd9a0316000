package presence

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qoricharge/storefront/internal/geoip"
	"github.com/qoricharge/storefront/internal/models"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.UserPresence{}))

	return &Service{DB: db}, db
}

func TestHeartbeatInsertsThenRefreshes(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Heartbeat(ctx, "1.2.3.4", "/", "Mozilla/5.0"))
	require.NoError(t, svc.Heartbeat(ctx, "1.2.3.4", "/gracias", "Mozilla/5.0"))

	var rows []models.UserPresence
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1, "heartbeats for one ip must upsert, not stack")
	require.Equal(t, "/gracias", rows[0].PagePath)
}

func TestHeartbeatSkipsAdminPages(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, svc.Heartbeat(context.Background(), "1.2.3.4", "/admin/orders", "x"))

	var count int64
	db.Model(&models.UserPresence{}).Count(&count)
	require.Zero(t, count)
}

func TestHeartbeatGeoEnrichment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ip":"1.2.3.4","city":"Lima","region":"Lima","country_name":"Peru"}`)
	}))
	defer srv.Close()

	svc, db := newTestService(t)
	svc.Geo = geoip.NewClient(srv.URL, nil)

	require.NoError(t, svc.Heartbeat(context.Background(), "1.2.3.4", "/", "x"))

	var row models.UserPresence
	require.NoError(t, db.First(&row).Error)
	require.Equal(t, "Lima", row.City)
	require.Equal(t, "Peru", row.Country)
}

func TestHeartbeatGeoFailureDoesNotBlockUpsert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc, db := newTestService(t)
	svc.Geo = geoip.NewClient(srv.URL, nil)

	require.NoError(t, svc.Heartbeat(context.Background(), "9.9.9.9", "/", "x"))

	var row models.UserPresence
	require.NoError(t, db.First(&row).Error)
	require.Equal(t, "Unknown", row.City)
}

func TestOnlineExcludesStaleAndAdminRows(t *testing.T) {
	svc, db := newTestService(t)
	now := time.Now().Unix()

	db.Create(&models.UserPresence{IPAddress: "1.1.1.1", PagePath: "/", LastSeen: now})
	db.Create(&models.UserPresence{IPAddress: "2.2.2.2", PagePath: "/", LastSeen: now - 6*60})
	db.Create(&models.UserPresence{IPAddress: "3.3.3.3", PagePath: "/admin", LastSeen: now})
	db.Create(&models.UserPresence{IPAddress: "4.4.4.4", PagePath: "/gracias", LastSeen: now - 60})

	rows, err := svc.Online(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "1.1.1.1", rows[0].IPAddress)
	require.Equal(t, "4.4.4.4", rows[1].IPAddress)
}

func TestDepartDeletesRow(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Heartbeat(ctx, "1.2.3.4", "/", "x"))
	svc.Depart(ctx, "1.2.3.4")

	var count int64
	db.Model(&models.UserPresence{}).Count(&count)
	require.Zero(t, count)
}
