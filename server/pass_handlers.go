package server

import (
	"net/http"

	"github.com/JoshuaLakeSexton/Reeflux/internal/metrics"
)

// VerifyPassHandler reports whether the request carries a valid pass. It
// always answers 200; denial is expressed in the body.
//
// An optional ?pool= narrows the check to a single pool.
func (s *Server) VerifyPassHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := s.verifier.CheckAccess(s.passFromRequest(r), r.URL.Query().Get("pool"))

		if result.Allowed {
			metrics.AccessChecked("allowed")
		} else {
			metrics.AccessChecked(string(result.Reason))
		}
		writeJSON(w, http.StatusOK, result)
	}
}
