package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dikshantyadav2006/library-seat-backend/internal/clock"
	"github.com/dikshantyadav2006/library-seat-backend/internal/engine"
	"github.com/dikshantyadav2006/library-seat-backend/internal/middleware"
)

// SeatHandler serves the read side: the month grid, single seat details and
// the list of bookable months.
type SeatHandler struct {
	Grid       *engine.Grid
	Clock      clock.Clock
	Location   *time.Location
	TotalSeats int
}

// NewSeatHandler constructs a SeatHandler.
func NewSeatHandler(grid *engine.Grid, clk clock.Clock, loc *time.Location, totalSeats int) *SeatHandler {
	if grid == nil || clk == nil {
		panic("nil dependency passed to NewSeatHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SeatHandler{Grid: grid, Clock: clk, Location: loc, TotalSeats: totalSeats}
}

// monthYearParams reads the optional month and year query parameters,
// defaulting to the current month.
func (h *SeatHandler) monthYearParams(c echo.Context) (int, int, bool) {
	now := h.Clock.Now().In(h.Location)
	month, year := int(now.Month()), now.Year()
	if s := c.QueryParam("month"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		month = n
	}
	if s := c.QueryParam("year"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, false
		}
		year = n
	}
	return month, year, true
}

// GetSeats handles GET /v1/seats.  It returns every seat's three shifts for
// the requested month, resolved against all three claim ledgers.  When the
// caller presented a valid token their own protections show as available.
func (h *SeatHandler) GetSeats(c echo.Context) error {
	month, year, ok := h.monthYearParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid month or year"})
	}
	requestingUser, _ := middleware.UserID(c)
	seats, err := h.Grid.SeatsForMonth(c.Request().Context(), month, year, h.TotalSeats, requestingUser)
	if err != nil {
		return seatError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"month": month,
		"year":  year,
		"seats": seats,
	})
}

// GetSeat handles GET /v1/seats/:seatNumber.
func (h *SeatHandler) GetSeat(c echo.Context) error {
	seat, err := strconv.Atoi(c.Param("seatNumber"))
	if err != nil || seat < 1 || seat > h.TotalSeats {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat number"})
	}
	month, year, ok := h.monthYearParams(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid month or year"})
	}
	requestingUser, _ := middleware.UserID(c)
	sm, err := h.Grid.SeatDetails(c.Request().Context(), seat, month, year, requestingUser)
	if err != nil {
		return seatError(c, err)
	}
	return c.JSON(http.StatusOK, sm)
}

// GetMonths handles GET /v1/months.  Bookings target the current month and
// protections reach up to three months ahead, so the current month plus the
// next three are listed with their protection deadlines.
func (h *SeatHandler) GetMonths(c echo.Context) error {
	now := h.Clock.Now().In(h.Location)

	type monthInfo struct {
		Month                int       `json:"month"`
		Year                 int       `json:"year"`
		Label                string    `json:"label"`
		Current              bool      `json:"current"`
		ProtectionDeadline   time.Time `json:"protection_deadline"`
		ProtectionsExpirable bool      `json:"protections_expirable"`
	}

	month, year := int(now.Month()), now.Year()
	months := make([]monthInfo, 0, 4)
	for i := 0; i < 4; i++ {
		deadline := clock.ProtectionDeadline(month, year, h.Location)
		months = append(months, monthInfo{
			Month:                month,
			Year:                 year,
			Label:                time.Month(month).String() + " " + strconv.Itoa(year),
			Current:              i == 0,
			ProtectionDeadline:   deadline,
			ProtectionsExpirable: now.After(deadline),
		})
		month, year = clock.NextMonth(month, year)
	}
	return c.JSON(http.StatusOK, echo.Map{"months": months})
}

// seatError maps engine read-path errors to responses.
func seatError(c echo.Context, err error) error {
	switch err {
	case engine.ErrInvalidMonth:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid month"})
	case engine.ErrInvalidSeat:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat number"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
