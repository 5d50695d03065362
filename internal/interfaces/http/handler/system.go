package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCounter reports how many cart sessions are live
type SessionCounter interface {
	Len() int
}

// SystemHandler handles liveness and system information endpoints
type SystemHandler struct {
	BaseHandler
	name          string
	version       string
	storageDriver string
	sessions      SessionCounter
	startTime     time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version, storageDriver string, sessions SessionCounter) *SystemHandler {
	return &SystemHandler{
		name:          name,
		version:       version,
		storageDriver: storageDriver,
		sessions:      sessions,
		startTime:     time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status         string `json:"status"`
	Storage        string `json:"storage"`
	ActiveSessions int    `json:"active_sessions"`
}

// Health reports liveness along with the storage driver in use
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:  "ok",
		Storage: h.storageDriver,
	}
	if h.sessions != nil {
		resp.ActiveSessions = h.sessions.Len()
	}
	h.Success(c, resp)
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns basic system information including version and uptime
// GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping is a simple endpoint to check that the API is responsive
// GET /system/ping
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
