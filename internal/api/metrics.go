package api

import (
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/smartconnect-core/internal/auth"
	"github.com/nerrad567/smartconnect-core/internal/barrier"
)

// DBStatsProvider exposes connection pool statistics. *database.DB satisfies it.
type DBStatsProvider interface {
	Stats() sql.DBStats
}

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	Access        AccessMetrics    `json:"access"`
	Database      *DatabaseMetrics `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// AccessMetrics summarises the access-control inventory.
type AccessMetrics struct {
	Sensors        int            `json:"sensors"`
	SensorsByState map[string]int `json:"sensors_by_state"`
	Barriers       int            `json:"barriers"`
	OpenBarriers   int            `json:"open_barriers"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns runtime and inventory metrics. Any resolved role
// may read them.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceSensor, auth.ActionRead, nil) {
		return
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Access: AccessMetrics{
			SensorsByState: make(map[string]int),
		},
	}

	sensors, err := s.sensors.List(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	metrics.Access.Sensors = len(sensors)
	for _, sn := range sensors {
		metrics.Access.SensorsByState[string(sn.State)]++
	}

	barriers, err := s.barriers.List(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	metrics.Access.Barriers = len(barriers)
	for _, b := range barriers {
		if b.State == barrier.StateOpen {
			metrics.Access.OpenBarriers++
		}
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
