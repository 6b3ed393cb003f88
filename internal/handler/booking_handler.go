package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fitness-booking-api/internal/dto"
	"github.com/noah-isme/fitness-booking-api/internal/models"
	appErrors "github.com/noah-isme/fitness-booking-api/pkg/errors"
	"github.com/noah-isme/fitness-booking-api/pkg/response"
)

type bookingService interface {
	BookClass(ctx context.Context, req dto.BookClassRequest) (*dto.BookClassResponse, error)
	ListBookings(ctx context.Context, email string) ([]models.Booking, error)
	ExportBookings(ctx context.Context, email string, format dto.ExportFormat) (*dto.BookingExport, error)
}

type bookingQuery struct {
	Email  string `form:"email" binding:"required,email"`
	Format string `form:"format" binding:"omitempty,oneof=csv pdf"`
}

// BookingHandler exposes booking endpoints.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler builds a new handler.
func NewBookingHandler(service bookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// Book godoc
// @Summary Book a class
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.BookClassRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /book [post]
func (h *BookingHandler) Book(c *gin.Context) {
	var req dto.BookClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	result, err := h.service.BookClass(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List bookings made with an email
// @Tags Bookings
// @Produce json
// @Param email query string true "Client email"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	var query bookingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "a valid email query parameter is required"))
		return
	}
	items, err := h.service.ListBookings(c.Request.Context(), query.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Export godoc
// @Summary Download bookings made with an email
// @Tags Bookings
// @Produce text/csv
// @Produce application/pdf
// @Param email query string true "Client email"
// @Param format query string false "csv or pdf (defaults to csv)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /bookings/export [get]
func (h *BookingHandler) Export(c *gin.Context) {
	var query bookingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	result, err := h.service.ExportBookings(c.Request.Context(), query.Email, dto.ExportFormat(query.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
