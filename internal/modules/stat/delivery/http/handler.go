package handler

import (
	"net/http"

	statService "anoa.com/studentmanager/internal/modules/stat/service"
	"anoa.com/studentmanager/pkg/response"
	"github.com/gin-gonic/gin"
)

type StatHandler struct {
	statService statService.StatService
}

func NewStatHandler(statService statService.StatService) *StatHandler {
	return &StatHandler{
		statService: statService,
	}
}

func (h *StatHandler) GetTotals(c *gin.Context) {
	totals, err := h.statService.GetTotals(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, totals)
}
