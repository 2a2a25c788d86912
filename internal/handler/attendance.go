package handler

import (
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/service"
	"github.com/labstack/echo/v4"
)

type AttendanceHandler struct {
	Handler
	attendance *service.AttendanceService
}

func NewAttendanceHandler(s *server.Server, attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		Handler:    NewHandler(s),
		attendance: attendance,
	}
}

func (h *AttendanceHandler) ClockIn(c echo.Context, req *model.ClockPayload) (*model.Attendance, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.attendance.ClockIn(c.Request().Context(), p, req)
}

func (h *AttendanceHandler) ClockOut(c echo.Context, req *model.ClockPayload) (*model.Attendance, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.attendance.ClockOut(c.Request().Context(), p, req)
}

// CurrentShift is the body of GET /attendance/current; Shift is null when
// the caller is not clocked in.
type CurrentShift struct {
	ClockedIn bool              `json:"clocked_in"`
	Shift     *model.Attendance `json:"shift"`
}

func (h *AttendanceHandler) Current(c echo.Context, _ *model.Empty) (*CurrentShift, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	shift, err := h.attendance.Current(c.Request().Context(), p)
	if err != nil {
		return nil, err
	}
	return &CurrentShift{ClockedIn: shift != nil, Shift: shift}, nil
}

func (h *AttendanceHandler) List(c echo.Context, req *model.ListAttendancePayload) (model.ListResponse[model.Attendance], error) {
	p, err := principal(c)
	if err != nil {
		return model.ListResponse[model.Attendance]{}, err
	}
	rows, err := h.attendance.List(c.Request().Context(), p, req)
	if err != nil {
		return model.ListResponse[model.Attendance]{}, err
	}
	return model.NewList(rows), nil
}

func (h *AttendanceHandler) Summary(c echo.Context, req *model.AttendanceSummaryPayload) (model.ListResponse[model.AttendanceSummary], error) {
	p, err := principal(c)
	if err != nil {
		return model.ListResponse[model.AttendanceSummary]{}, err
	}
	rows, err := h.attendance.Summary(c.Request().Context(), p, req)
	if err != nil {
		return model.ListResponse[model.AttendanceSummary]{}, err
	}
	return model.NewList(rows), nil
}
