package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Backend     string `json:"backend"`
	Environment string `json:"environment"`
}

// Health reports the frontend's own liveness plus the last observed backend
// condition from the probe loop, so this endpoint stays cheap under polling.
func (h HandlerSet) Health(c *gin.Context) {
	backend := "ok"
	if !h.monitor.Status().BackendUp {
		backend = "error"
	}

	c.JSON(http.StatusOK, healthResponse{
		Status:      "ok",
		Backend:     backend,
		Environment: h.cfg.Environment,
	})
}
