package web

import (
	"net/http"
	"strconv"

	"github.com/PatrickWalther/unfollow-watch-go/internal/notifications"
)

func (s *Server) handleAPIVisualization(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeNotAllowed(w)
		return
	}

	data, err := s.backend.GetVisualizationData(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSONOK(w, data)
}

func (s *Server) handleAPINotificationsHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeNotAllowed(w)
		return
	}

	limit := notifications.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.backend.NotificationHistory(limit)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSONOK(w, entries)
}

func (s *Server) handleAPINotificationsTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeNotAllowed(w)
		return
	}

	sent, err := s.backend.TestNotification(r.Context())
	if err != nil {
		writeServiceUnavailable(w, err.Error())
		return
	}
	writeJSONOK(w, map[string]int{"sent": sent})
}
