package shelf

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse 服务状态
type HealthResponse struct {
	Status           string     `json:"status"`
	ProcessingActive bool       `json:"processing_active"`
	CameraURL        string     `json:"camera_url"`
	Clients          int        `json:"clients"`
	LatestVersion    uint64     `json:"latest_version"`
	NextCheck        *time.Time `json:"next_check,omitempty"`
	Timestamp        time.Time  `json:"timestamp"`
}

// Health 服务状态
func (h *ShelfHandler) Health(c *gin.Context) {
	clients := 0
	if h.opts.ClientCount != nil {
		clients = h.opts.ClientCount()
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:           "healthy",
		ProcessingActive: h.svc.Processing(),
		CameraURL:        h.opts.CameraURL,
		Clients:          clients,
		LatestVersion:    h.svc.Latest().Version(),
		NextCheck:        h.nextTick(),
		Timestamp:        h.now().UTC(),
	})
}
