package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dikshantyadav2006/library-seat-backend/internal/engine"
	"github.com/dikshantyadav2006/library-seat-backend/internal/middleware"
	"github.com/dikshantyadav2006/library-seat-backend/internal/model"
)

// ProtectionHandler exposes manual seat protection and the window status
// endpoint, plus the admin sweep that releases expired protections on
// demand.
type ProtectionHandler struct {
	Manager *engine.ProtectionManager
	Reaper  *engine.Reaper
	Grid    *engine.Grid
}

// NewProtectionHandler constructs a ProtectionHandler.
func NewProtectionHandler(manager *engine.ProtectionManager, reaper *engine.Reaper, grid *engine.Grid) *ProtectionHandler {
	if manager == nil || reaper == nil || grid == nil {
		panic("nil dependency passed to NewProtectionHandler")
	}
	return &ProtectionHandler{Manager: manager, Reaper: reaper, Grid: grid}
}

type protectionRequest struct {
	SeatNumber int                  `json:"seat_number"`
	Months     []engine.TargetMonth `json:"months"`
	ShiftTypes []model.ShiftType    `json:"shift_types"`
}

// Create handles POST /v1/protections.  One seat, the same shifts, up to
// three target months; the whole batch succeeds or nothing is held.
func (h *ProtectionHandler) Create(c echo.Context) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body protectionRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	created, err := h.Manager.ProtectShifts(c.Request().Context(), body.SeatNumber, body.Months, body.ShiftTypes, userID)
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	for _, tm := range body.Months {
		h.Grid.Invalidate(ctx, tm.Month, tm.Year)
	}
	return c.JSON(http.StatusCreated, echo.Map{"protections": created})
}

// Window handles GET /v1/protections/window and reports whether manual
// protection is currently allowed.
func (h *ProtectionHandler) Window(c echo.Context) error {
	open, remaining := h.Manager.WindowOpen()
	return c.JSON(http.StatusOK, echo.Map{
		"open":           open,
		"days_remaining": remaining,
	})
}

// ReleaseExpired handles POST /v1/admin/protections/release.  The periodic
// reaper makes this redundant in steady state; admins use it to force a
// sweep immediately.
func (h *ProtectionHandler) ReleaseExpired(c echo.Context) error {
	n, err := h.Reaper.ReleaseExpiredProtections(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"released": n})
}
