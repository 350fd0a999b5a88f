package http

import (
	"fmt"
	"net/http"
	"time"

	"arriendo-cajas-backend/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) reportSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := s.svc.Reports.Summary(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) reportXLSX(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := s.svc.Reports.ExportXLSX(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, xlsxContentType, reportName(from, to, "xlsx"), data)
}

func (s *Server) reportPDF(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	data, err := s.svc.Reports.ExportPDF(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, "application/pdf", reportName(from, to, "pdf"), data)
}

// reportName uses the inclusive dates the caller asked for
func reportName(from, to time.Time, ext string) string {
	return fmt.Sprintf("arriendos_%s_%s.%s", utils.FormatDate(from), utils.FormatDate(to.AddDate(0, 0, -1)), ext)
}
