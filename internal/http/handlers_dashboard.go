package http

import (
	"net/http"
	"strings"

	"fincontrol/internal/core"
	"fincontrol/internal/dashboard"
	"fincontrol/internal/services"
)

// handleDashboard serves GET /api/dashboard?mode=&start=&end=. start and end
// are only read in range mode.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	mode, err := dashboard.ParseMode(v.Get("mode"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var custom dashboard.Window
	if mode == dashboard.Range {
		for name, dst := range map[string]*core.Date{"start": &custom.Start, "end": &custom.End} {
			raw := strings.TrimSpace(v.Get(name))
			if raw == "" {
				continue
			}
			d, err := core.ParseDate(raw)
			if err != nil {
				writeError(w, r, &services.ValidationError{Fields: map[string]string{name: "must be a date in YYYY-MM-DD format"}})
				return
			}
			*dst = d
		}
	}

	report, err := s.dashboard.Report(r.Context(), mode, custom)
	respond(w, r, http.StatusOK, report, err)
}
