package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dikshantyadav2006/library-seat-backend/internal/engine"
	"github.com/dikshantyadav2006/library-seat-backend/internal/middleware"
	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
)

// AdminHandler exposes the administrative surface: blocking and unblocking
// shifts, creating bookings on behalf of members and cancelling bookings.
type AdminHandler struct {
	Coordinator *engine.Coordinator
	Blocks      *engine.BlockManager
	Grid        *engine.Grid
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(coordinator *engine.Coordinator, blocks *engine.BlockManager, grid *engine.Grid) *AdminHandler {
	if coordinator == nil || blocks == nil || grid == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Coordinator: coordinator, Blocks: blocks, Grid: grid}
}

type blockRequest struct {
	SeatNumber int               `json:"seat_number"`
	Month      int               `json:"month"`
	Year       int               `json:"year"`
	ShiftTypes []model.ShiftType `json:"shift_types"`
}

// Block handles POST /v1/admin/blocks.  A block lands on all requested
// shifts or none; actively booked shifts veto the whole call.
func (h *AdminHandler) Block(c echo.Context) error {
	adminID, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body blockRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	blocks, err := h.Blocks.BlockShifts(c.Request().Context(), body.SeatNumber, body.Month, body.Year, body.ShiftTypes, adminID)
	if err != nil {
		return writeError(c, err)
	}
	h.Grid.Invalidate(c.Request().Context(), body.Month, body.Year)
	return c.JSON(http.StatusCreated, echo.Map{"blocks": blocks})
}

// Unblock handles DELETE /v1/admin/blocks.
func (h *AdminHandler) Unblock(c echo.Context) error {
	var body blockRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	n, err := h.Blocks.UnblockShifts(c.Request().Context(), body.SeatNumber, body.Month, body.Year, body.ShiftTypes)
	if err != nil {
		return writeError(c, err)
	}
	h.Grid.Invalidate(c.Request().Context(), body.Month, body.Year)
	return c.JSON(http.StatusOK, echo.Map{"unblocked": n})
}

type adminBookingRequest struct {
	SeatNumber int               `json:"seat_number"`
	Month      int               `json:"month"`
	Year       int               `json:"year"`
	ShiftTypes []model.ShiftType `json:"shift_types"`
	UserID     uint64            `json:"user_id"`
}

// CreateBooking handles POST /v1/admin/bookings.  Admins book on behalf of
// a member for payments settled offline, so a synthetic payment reference
// is generated instead of collected.
func (h *AdminHandler) CreateBooking(c echo.Context) error {
	var body adminBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}

	paymentRef := "admin-" + uuid.NewString()
	res, err := h.Coordinator.BookShifts(c.Request().Context(), body.SeatNumber, body.Month, body.Year, body.ShiftTypes, body.UserID, paymentRef)
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	h.Grid.Invalidate(ctx, body.Month, body.Year)
	if res.AutoProtected {
		h.Grid.Invalidate(ctx, res.ProtectedMonth, res.ProtectedYear)
	}
	publishBookingConfirmed(res)

	return c.JSON(http.StatusCreated, echo.Map{
		"booking":        res.Booking,
		"auto_protected": res.AutoProtected,
	})
}

// CancelBooking handles DELETE /v1/admin/bookings/:id.  The booking record
// survives as history; only its shift claims are released.
func (h *AdminHandler) CancelBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.Coordinator.CancelBooking(c.Request().Context(), id); err != nil {
		if err == engine.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "active booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}
