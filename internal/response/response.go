package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campbook/service-booking/internal/domain"
)

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// Paginated writes a 200 response with items and paging metadata.
func Paginated(c *gin.Context, items any, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"data":  items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// Error writes an error response, mapping domain error codes to HTTP
// statuses. Unknown errors become an opaque 500.
func Error(c *gin.Context, err error) {
	code := domain.CodeOf(err)

	var status int
	switch code {
	case domain.CodeValidation:
		status = http.StatusBadRequest
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeForbidden:
		status = http.StatusForbidden
	case domain.CodeConflict, domain.CodeInvalidState, domain.CodeConflictingBooking:
		status = http.StatusConflict
	case domain.CodePeriodNotConfirmed, domain.CodeOccasionFull, domain.CodeBookingLimitReached:
		status = http.StatusUnprocessableEntity
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error(), "code": string(code)})
}
