package output

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").Funcs(template.FuncMap{
		"statusClass": statusClass,
	}).ParseFS(templateFS, "templates/report.html.tmpl"),
)

// reportView is the data handed to the HTML template.
type reportView struct {
	Report *models.Report
	Check  *models.CheckResult
}

// RenderHTML renders the human readable report. Either argument may be nil
// but not both.
func RenderHTML(w io.Writer, report *models.Report, check *models.CheckResult) error {
	if report == nil && check == nil {
		return fmt.Errorf("nothing to render")
	}
	if err := reportTemplate.Execute(w, reportView{Report: report, Check: check}); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func statusClass(s models.CheckStatus) string {
	switch s {
	case models.StatusOK:
		return "ok"
	case models.StatusWarning:
		return "warn"
	default:
		return "bad"
	}
}
