package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campbook/service-booking/internal/application"
	"github.com/campbook/service-booking/internal/auth"
	bookingDomain "github.com/campbook/service-booking/internal/domain/booking"
	"github.com/campbook/service-booking/internal/middleware"
	"github.com/campbook/service-booking/internal/response"
)

// AdminHandler exposes the matching oversight surface: the full booking
// table, filterable by state, and the per-state counts an organizer watches
// while a period's matching runs.
type AdminHandler struct {
	service *application.BookingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service *application.BookingService) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterRoutes mounts the admin routes behind the admin role.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings. An optional ?state=
// query narrows the list to one booking state, e.g. state=blocked to see
// what the acceptance engine is holding back.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	state := c.Query("state")
	if state != "" {
		if _, err := bookingDomain.ParseBookingState(state); err != nil {
			response.BadRequest(c, "invalid state filter: "+state)
			return
		}
	}

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit, state)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
