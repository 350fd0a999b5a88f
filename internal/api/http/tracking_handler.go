package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) trackRental(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, err := s.svc.Tracking.Lookup(r.Context(), vars["code"], vars["token"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, view)
}
