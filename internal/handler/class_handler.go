package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fitness-booking-api/internal/dto"
	"github.com/noah-isme/fitness-booking-api/pkg/response"
)

type classService interface {
	ListClasses(ctx context.Context, timezone string) ([]dto.ClassView, error)
}

// ClassHandler exposes the class catalog.
type ClassHandler struct {
	service classService
}

// NewClassHandler builds a new handler.
func NewClassHandler(service classService) *ClassHandler {
	return &ClassHandler{service: service}
}

// List godoc
// @Summary List upcoming classes
// @Description Start times are rendered in the requested IANA timezone.
// @Tags Classes
// @Produce json
// @Param timezone query string false "IANA timezone (defaults to Asia/Kolkata)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	items, err := h.service.ListClasses(c.Request.Context(), c.Query("timezone"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}
