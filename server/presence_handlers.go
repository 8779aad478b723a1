package server

import (
	"net/http"

	"github.com/rs/zerolog"

	errs "github.com/JoshuaLakeSexton/Reeflux/internal/errors"
	"github.com/JoshuaLakeSexton/Reeflux/internal/metrics"
	"github.com/JoshuaLakeSexton/Reeflux/presence"
)

const (
	degradedNotConfigured = "presence store not configured"
	degradedStoreError    = "presence store error"
)

type pingRequest struct {
	SessionID string  `json:"sessionId"`
	Drift     float64 `json:"drift"`
}

type pingResponse struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"sessionId,omitempty"`
	LastSeen  int64  `json:"lastSeen,omitempty"`
	Degraded  bool   `json:"degraded,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

type statsResponse struct {
	presence.Stats
	Degraded bool   `json:"degraded,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// PingHandler records a presence heartbeat. Store trouble never fails the
// page: it answers 200 with degraded set.
func (s *Server) PingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			writeJSON(w, http.StatusOK, pingResponse{OK: true})
			return
		}

		var req pingRequest
		if err := decodeJSONBody(w, r, &req); err != nil {
			metrics.Heartbeat("bad_request")
			writeJSON(w, http.StatusBadRequest, pingResponse{Error: "Invalid request body"})
			return
		}

		lastSeen, err := s.presence.Ping(r.Context(), req.SessionID, req.Drift)
		switch {
		case err == nil:
			metrics.Heartbeat("ok")
			writeJSON(w, http.StatusOK, pingResponse{OK: true, SessionID: req.SessionID, LastSeen: lastSeen.UnixMilli()})
		case errs.Is(err, errs.ErrMissingSessionID):
			metrics.Heartbeat("bad_request")
			writeJSON(w, http.StatusBadRequest, pingResponse{Error: "Missing sessionId"})
		case errs.Is(err, errs.ErrStoreUnavailable):
			metrics.Heartbeat("degraded")
			writeJSON(w, http.StatusOK, pingResponse{OK: true, Degraded: true, Reason: degradedNotConfigured})
		default:
			metrics.Heartbeat("degraded")
			zerolog.Ctx(r.Context()).Err(err).Msg("Presence: ping failed")
			writeJSON(w, http.StatusOK, pingResponse{OK: true, Degraded: true, Reason: degradedStoreError})
		}
	}
}

// StatsHandler reports site activity, falling back to stable defaults when
// the store is unavailable.
func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.presence.Stats(r.Context())
		resp := statsResponse{Stats: stats}
		switch {
		case err == nil:
		case errs.Is(err, errs.ErrStoreUnavailable):
			resp = statsResponse{Stats: stats, Degraded: true, Reason: degradedNotConfigured}
		default:
			zerolog.Ctx(r.Context()).Err(err).Msg("Presence: stats failed")
			resp = statsResponse{Stats: presence.Stats{CurrentDrift: presence.DefaultDrift, LastUpdated: stats.LastUpdated}, Degraded: true, Reason: degradedStoreError}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HealthHandler answers liveness probes.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
