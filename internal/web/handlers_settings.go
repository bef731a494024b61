package web

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/PatrickWalther/unfollow-watch-go/internal/settings"
)

func (s *Server) handleAPISettings(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		current, err := s.backend.LoadSettings()
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSONOK(w, current)
		return
	}

	if r.Method == http.MethodPost {
		var patch settings.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeBadRequest(w, "Invalid JSON: "+err.Error())
			return
		}
		if patch.IsEmpty() {
			writeBadRequest(w, "No settings supplied")
			return
		}

		updated, err := s.backend.SaveSettings(patch)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSONOK(w, updated)
		return
	}

	writeNotAllowed(w)
}

func (s *Server) handleAPISettingsReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeNotAllowed(w)
		return
	}

	defaults, err := s.backend.ResetSettings()
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSONOK(w, defaults)
}
