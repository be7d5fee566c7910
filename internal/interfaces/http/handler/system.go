package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillbase/backend/internal/infrastructure/persistence"
	"github.com/skillbase/backend/internal/interfaces/http/dto"
)

// SystemHandler serves liveness and readiness endpoints
type SystemHandler struct {
	BaseHandler
	db      *persistence.Database
	appName string
	version string
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(db *persistence.Database, appName, version string) *SystemHandler {
	return &SystemHandler{
		db:      db,
		appName: appName,
		version: version,
	}
}

// HealthStatus is the healthz payload
type HealthStatus struct {
	Status   string            `json:"status"`
	App      string            `json:"app"`
	Version  string            `json:"version,omitempty"`
	Time     time.Time         `json:"time"`
	Checks   map[string]string `json:"checks"`
	Degraded bool              `json:"degraded,omitempty"`
}

// Healthz reports process liveness and database reachability
func (h *SystemHandler) Healthz(c *gin.Context) {
	status := HealthStatus{
		Status:  "ok",
		App:     h.appName,
		Version: h.version,
		Time:    time.Now().UTC(),
		Checks:  map[string]string{},
	}

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status.Status = "degraded"
			status.Degraded = true
			status.Checks["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, dto.NewSuccessResponse(status))
			return
		}
		status.Checks["database"] = "ok"
	}

	h.Success(c, status)
}

// RegisterRoutes registers the system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/healthz", h.Healthz)
}
