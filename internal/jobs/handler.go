package jobs

import (
	"net/http"

	"anoa.com/studentmanager/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	scheduler *Scheduler
}

func NewHandler(scheduler *Scheduler) *Handler {
	return &Handler{scheduler: scheduler}
}

// RunJob runs the job named in the path and waits for it to finish.
func (h *Handler) RunJob(c *gin.Context) {
	name := c.Param("name")
	if err := h.scheduler.RunByName(c.Request.Context(), name); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job completed", "job": name})
}
