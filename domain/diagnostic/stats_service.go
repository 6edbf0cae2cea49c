// Package diagnostic aggregates session statistics for operator-facing
// diagnostics endpoints and telemetry publishing.
package diagnostic

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/toybot/teleop/pkg/drive"
)

// SessionStats is a snapshot of the running teleop session.
type SessionStats struct {
	StartedAt         time.Time          `json:"started_at"`
	Mode              string             `json:"mode"`
	Ticks             int64              `json:"ticks"`
	CommandsSent      int64              `json:"commands_sent"`
	ExpressionsPlayed int64              `json:"expressions_played"`
	LastCommand       drive.WheelCommand `json:"last_command"`
	LastUpdate        time.Time          `json:"last_update"`
}

// StatsService records control loop activity for diagnostics.
type StatsService struct {
	mu    sync.RWMutex
	stats SessionStats
}

// NewStatsService creates a stats service with the session clock started.
func NewStatsService() *StatsService {
	return &StatsService{
		stats: SessionStats{
			StartedAt: time.Now(),
		},
	}
}

// SetMode records the active control mode.
func (s *StatsService) SetMode(mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Mode = mode
}

// RecordTick records one control loop iteration and the command it issued.
func (s *StatsService) RecordTick(cmd drive.WheelCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Ticks++
	s.stats.CommandsSent++
	s.stats.LastCommand = cmd
	s.stats.LastUpdate = time.Now()
}

// RecordExpression records one expression playback.
func (s *StatsService) RecordExpression() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.ExpressionsPlayed++
}

// Snapshot returns a copy of the current stats.
func (s *StatsService) Snapshot() SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// GetStatsHandler handles API requests for session statistics.
func (s *StatsService) GetStatsHandler(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return c.JSON(fiber.Map{
		"status": "success",
		"stats":  s.stats,
	})
}
