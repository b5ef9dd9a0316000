// Package presence tracks who is viewing which public page. Viewers
// heartbeat every 30 seconds; a row older than the freshness window is
// treated as gone whether or not its delete ever ran.
package presence

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qoricharge/storefront/internal/geoip"
	"github.com/qoricharge/storefront/internal/models"
)

const (
	// HeartbeatInterval is the cadence clients are expected to follow.
	HeartbeatInterval = 30 * time.Second

	// FreshnessWindow is how long a row counts as online after its last
	// heartbeat.
	FreshnessWindow = 5 * time.Minute

	reapAfter = 30 * time.Minute
	reapEvery = time.Minute
)

type Service struct {
	DB  *gorm.DB
	Geo *geoip.Client
	Log *slog.Logger
}

// Heartbeat upserts the viewer row keyed by IP. Admin pages are never
// tracked. The geo lookup is best-effort and cached, so it cannot block or
// fail the upsert.
func (s *Service) Heartbeat(ctx context.Context, ip, pagePath, userAgent string) error {
	if ip == "" || strings.HasPrefix(pagePath, "/admin") {
		return nil
	}

	loc := geoip.Location{City: "Unknown", Region: "Unknown", Country: "Unknown"}
	if s.Geo != nil {
		loc = s.Geo.Lookup(ctx, ip)
	}

	row := models.UserPresence{
		IPAddress: ip,
		PagePath:  pagePath,
		LastSeen:  time.Now().Unix(),
		UserAgent: userAgent,
		City:      loc.City,
		Region:    loc.Region,
		Country:   loc.Country,
	}

	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ip_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"page_path", "last_seen", "user_agent", "city", "region", "country"}),
	}).Create(&row).Error
}

// Depart removes the viewer row. Best-effort: the caller may never get to
// run it (abrupt tab close), which is why Online filters on LastSeen.
func (s *Service) Depart(ctx context.Context, ip string) {
	if ip == "" {
		return
	}
	if err := s.DB.WithContext(ctx).Where("ip_address = ?", ip).Delete(&models.UserPresence{}).Error; err != nil {
		s.log().Warn("presence delete failed", "ip", ip, "error", err)
	}
}

// Online lists viewers seen within the freshness window, public pages only,
// newest first.
func (s *Service) Online(ctx context.Context) ([]models.UserPresence, error) {
	cutoff := time.Now().Add(-FreshnessWindow).Unix()

	var rows []models.UserPresence
	err := s.DB.WithContext(ctx).
		Where("last_seen >= ?", cutoff).
		Where("page_path NOT LIKE ?", "/admin%").
		Order("last_seen DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// StartReaper deletes long-stale rows in the background until ctx ends.
// Departure deletes are not guaranteed, so the table needs a janitor.
func (s *Service) StartReaper(ctx context.Context) {
	go func() {
		t := time.NewTicker(reapEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				cutoff := time.Now().Add(-reapAfter).Unix()
				res := s.DB.WithContext(ctx).Where("last_seen < ?", cutoff).Delete(&models.UserPresence{})
				if res.Error != nil {
					s.log().Warn("presence reap failed", "error", res.Error)
				} else if res.RowsAffected > 0 {
					s.log().Info("presence rows reaped", "count", res.RowsAffected)
				}
			}
		}
	}()
}

func (s *Service) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
