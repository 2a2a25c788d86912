package handler

import (
	"github.com/deppfellow/storeops/internal/lib/telegram"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/service"
	"github.com/labstack/echo/v4"
)

type ReportHandler struct {
	Handler
	reports *service.ReportService
}

func NewReportHandler(s *server.Server, reports *service.ReportService) *ReportHandler {
	return &ReportHandler{
		Handler: NewHandler(s),
		reports: reports,
	}
}

// Preview returns the flight report data without sending it.
func (h *ReportHandler) Preview(c echo.Context, req *model.DailyReportPayload) (*model.DailyReport, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.reports.Preview(c.Request().Context(), p, req)
}

// PreviewText renders the report exactly as it would be posted to Telegram.
func (h *ReportHandler) PreviewText(c echo.Context, req *model.DailyReportPayload) (string, error) {
	report, err := h.Preview(c, req)
	if err != nil {
		return "", err
	}
	return telegram.FormatFlightReport(report)
}

// Send enqueues delivery and answers 202.
func (h *ReportHandler) Send(c echo.Context, req *model.DailyReportPayload) (*model.ReportQueued, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.reports.Queue(c.Request().Context(), p, req)
}
