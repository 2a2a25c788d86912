package telegram

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/deppfellow/storeops/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("flight_report.tmpl").
		Funcs(sprig.TxtFuncMap()).
		ParseFS(templateFS, "templates/flight_report.tmpl"),
)

// FormatFlightReport renders the daily report as a plain-text status block.
func FormatFlightReport(report *model.DailyReport) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("rendering flight report: %w", err)
	}
	return buf.String(), nil
}
