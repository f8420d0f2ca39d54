package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dikshantyadav2006/library-seat-backend/internal/engine"
	"github.com/dikshantyadav2006/library-seat-backend/internal/middleware"
	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
	"github.com/dikshantyadav2006/library-seat-backend/internal/queue"
	queue_publisher "github.com/dikshantyadav2006/library-seat-backend/internal/service"
)

// BookingHandler exposes booking creation and the caller's booking history.
// Payment itself happens outside this service; the handler receives the
// verified payment reference and hands it to the coordinator.
type BookingHandler struct {
	Coordinator *engine.Coordinator
	Grid        *engine.Grid
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(coordinator *engine.Coordinator, grid *engine.Grid) *BookingHandler {
	if coordinator == nil || grid == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Coordinator: coordinator, Grid: grid}
}

type bookingRequest struct {
	SeatNumber int               `json:"seat_number"`
	Month      int               `json:"month"`
	Year       int               `json:"year"`
	ShiftTypes []model.ShiftType `json:"shift_types"`
	PaymentRef string            `json:"payment_ref"`
}

// Create handles POST /v1/bookings.  All requested shifts are claimed as
// one unit; any conflict rejects the whole request.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body bookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := h.Coordinator.BookShifts(c.Request().Context(), body.SeatNumber, body.Month, body.Year, body.ShiftTypes, userID, body.PaymentRef)
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	h.Grid.Invalidate(ctx, body.Month, body.Year)
	if res.AutoProtected {
		h.Grid.Invalidate(ctx, res.ProtectedMonth, res.ProtectedYear)
	}
	publishBookingConfirmed(res)

	resp := echo.Map{
		"booking":        res.Booking,
		"auto_protected": res.AutoProtected,
	}
	if res.AutoProtected {
		resp["protected_month"] = res.ProtectedMonth
		resp["protected_year"] = res.ProtectedYear
		resp["protection_expires_at"] = res.ProtectionExpiresAt
	}
	return c.JSON(http.StatusCreated, resp)
}

// MyBookings handles GET /v1/my-bookings.  Cancelled bookings are included
// so clients can show history.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Coordinator.BookingsForUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// publishBookingConfirmed emits the booking.confirmed event.  Publishing is
// fire and forget; a broker outage must not fail the request.
func publishBookingConfirmed(res *engine.BookingResult) {
	shifts := make([]string, 0, len(res.Booking.ShiftTypes))
	for _, s := range res.Booking.ShiftTypes {
		shifts = append(shifts, string(s))
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:     res.Booking.ID,
		UserID:        res.Booking.UserID,
		SeatNumber:    res.Booking.SeatNumber,
		Month:         res.Booking.Month,
		Year:          res.Booking.Year,
		ShiftTypes:    shifts,
		PaymentRef:    res.Booking.PaymentRef,
		AutoProtected: res.AutoProtected,
		BookedAt:      res.Booking.BookedAt.UTC().Format(time.RFC3339),
	}
	// Detached from the request context so the publish survives the
	// response being written.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = queue_publisher.PublishBookingConfirmed(ctx, ev)
	}()
}

// writeError maps engine sentinel errors from write paths to responses.
func writeError(c echo.Context, err error) error {
	switch err {
	case engine.ErrInvalidSeat:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat number"})
	case engine.ErrInvalidMonth:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid month"})
	case engine.ErrInvalidShiftType:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift type"})
	case engine.ErrNoShifts:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "shift_types is required"})
	case engine.ErrMissingPaymentRef:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_ref is required"})
	case engine.ErrTooManyMonths:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at most three months can be protected"})
	case engine.ErrShiftUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"error": "one or more shifts are not available"})
	case engine.ErrShiftAlreadyBooked:
		return c.JSON(http.StatusConflict, echo.Map{"error": "one or more shifts are actively booked"})
	case engine.ErrProtectionWindowClosed:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "protection window is closed"})
	case engine.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
