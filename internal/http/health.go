package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readlog/internal/database"
	"github.com/mrlokans/readlog/internal/database/migrations"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Time          string            `json:"time"`
	Version       string            `json:"version,omitempty"`
	SchemaVersion int               `json:"schema_version,omitempty"`
	Checks        map[string]string `json:"checks"`
}

type HealthController struct {
	db      *database.Database
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"
	schema := 0

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}

		// The schema is fixed at open; a mismatch means the file was
		// replaced underneath the running process.
		v, err := h.db.Version()
		switch {
		case err != nil:
			checks["schema"] = "error: " + err.Error()
			status = "unhealthy"
		case v != migrations.CurrentVersion:
			checks["schema"] = fmt.Sprintf("version %d, expected %d", v, migrations.CurrentVersion)
			status = "unhealthy"
		default:
			checks["schema"] = "ok"
		}
		schema = v
	} else {
		checks["database"] = "not configured"
	}

	health := HealthResponse{
		Status:        status,
		Time:          time.Now().Format(time.RFC3339),
		Version:       h.version,
		SchemaVersion: schema,
		Checks:        checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
