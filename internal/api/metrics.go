package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/gray-logic-electrolux/internal/bridges/electrolux"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string                    `json:"timestamp"`
	Version       string                    `json:"version"`
	UptimeSeconds int64                     `json:"uptime_seconds"`
	Runtime       RuntimeMetrics            `json:"runtime"`
	WebSocket     WSMetrics                 `json:"websocket"`
	Bridge        *electrolux.BridgeMetrics `json:"bridge,omitempty"`
	Appliances    ApplianceMetrics          `json:"appliances"`
	Database      *DatabaseMetrics          `json:"database,omitempty"`
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

// ApplianceMetrics summarises the appliance registry.
type ApplianceMetrics struct {
	Total        int            `json:"total"`
	Entities     int            `json:"entities"`
	ByConnection map[string]int `json:"by_connection"`
	ByKind       map[string]int `json:"by_kind"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleSystem returns runtime, bridge and registry statistics.
func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Appliances: s.applianceMetrics(),
	}

	if s.bridge != nil {
		bm := s.bridge.GetMetrics()
		metrics.Bridge = &bm
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

func (s *Server) applianceMetrics() ApplianceMetrics {
	m := ApplianceMetrics{
		ByConnection: make(map[string]int),
		ByKind:       make(map[string]int),
	}
	for _, st := range s.registry.All() {
		m.Total++
		m.ByConnection[st.ConnectionState()]++
		for _, d := range st.Entities() {
			m.Entities++
			m.ByKind[string(d.Kind)]++
		}
	}
	return m
}
