package web

import (
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/PatrickWalther/unfollow-watch-go/internal/detector"
)

type credentialRequest struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

type credentialResponse struct {
	Configured bool   `json:"configured"`
	Username   string `json:"username,omitempty"`
}

func (s *Server) handleAPICredential(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ok, username := s.backend.CheckCredential()
		writeJSONOK(w, credentialResponse{Configured: ok, Username: username})

	case http.MethodPost:
		var req credentialRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBadRequest(w, "Invalid JSON: "+err.Error())
			return
		}
		if strings.TrimSpace(req.Token) == "" || strings.TrimSpace(req.Username) == "" {
			writeBadRequest(w, "token and username are required")
			return
		}
		if err := s.backend.SaveCredential(req.Token, req.Username); err != nil {
			writeBackendError(w, err)
			return
		}
		writeSuccess(w)

	default:
		writeNotAllowed(w)
	}
}

func (s *Server) handleAPIUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeNotAllowed(w)
		return
	}

	details, err := s.backend.FetchUserDetails(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSONOK(w, details)
}

func (s *Server) handleAPIFollowers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeNotAllowed(w)
		return
	}

	query := r.URL.Query().Get("q")
	if query != "" {
		followers, err := s.backend.SearchFollowers(r.Context(), query)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSONOK(w, followers)
		return
	}

	followers, err := s.backend.FetchFollowers(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSONOK(w, followers)
}

func (s *Server) handleAPIFollowing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeNotAllowed(w)
		return
	}

	following, err := s.backend.FetchFollowing(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSONOK(w, following)
}

// handleAPIFollowingUser serves PUT and DELETE /api/following/{login}.
func (s *Server) handleAPIFollowingUser(w http.ResponseWriter, r *http.Request) {
	login := strings.TrimPrefix(r.URL.Path, "/api/following/")
	if login == "" || strings.Contains(login, "/") {
		writeBadRequest(w, "Invalid login")
		return
	}

	var err error
	switch r.Method {
	case http.MethodPut:
		err = s.backend.Follow(r.Context(), login)
	case http.MethodDelete:
		err = s.backend.Unfollow(r.Context(), login)
	default:
		writeNotAllowed(w)
		return
	}

	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleAPIUnfollowers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeNotAllowed(w)
		return
	}

	rec, err := s.backend.GetUnfollowers()
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSONOK(w, rec)
}

func (s *Server) handleAPIUnfollowersCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeNotAllowed(w)
		return
	}

	count, err := s.backend.GetUnfollowersCount()
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSONOK(w, map[string]int{"count": count})
}

type refreshResponse struct {
	Skipped bool             `json:"skipped"`
	Result  *detector.Result `json:"result,omitempty"`
}

func (s *Server) handleAPIRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeNotAllowed(w)
		return
	}

	result, ran, err := s.backend.Refresh(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if !ran {
		writeJSON(w, http.StatusAccepted, refreshResponse{Skipped: true})
		return
	}
	writeJSONOK(w, refreshResponse{Result: &result})
}
