package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PatrickWalther/unfollow-watch-go/internal/analytics"
	"github.com/PatrickWalther/unfollow-watch-go/internal/config"
	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
	"github.com/PatrickWalther/unfollow-watch-go/internal/detector"
	"github.com/PatrickWalther/unfollow-watch-go/internal/models"
	"github.com/PatrickWalther/unfollow-watch-go/internal/notifications"
	"github.com/PatrickWalther/unfollow-watch-go/internal/settings"
)

// Backend is the set of operations the UI drives.
type Backend interface {
	CheckCredential() (bool, string)
	SaveCredential(token, username string) error
	FetchFollowers(ctx context.Context) ([]models.FollowerStatus, error)
	SearchFollowers(ctx context.Context, query string) ([]models.FollowerStatus, error)
	FetchFollowing(ctx context.Context) ([]models.Follower, error)
	FetchUserDetails(ctx context.Context) (models.UserDetails, error)
	GetUnfollowers() (models.UnfollowerRecord, error)
	GetUnfollowersCount() (int, error)
	Follow(ctx context.Context, login string) error
	Unfollow(ctx context.Context, login string) error
	LoadSettings() (settings.Settings, error)
	SaveSettings(patch settings.Patch) (settings.Settings, error)
	ResetSettings() (settings.Settings, error)
	GetVisualizationData(ctx context.Context) (*analytics.VisualizationData, error)
	Refresh(ctx context.Context) (detector.Result, bool, error)
	NotificationHistory(limit int) ([]notifications.LogEntry, error)
	TestNotification(ctx context.Context) (int, error)
}

type Server struct {
	host    string
	port    int
	backend Backend
	status  *StatusBroadcaster
	metrics http.Handler

	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader
}

// NewServer builds the API server. metricsHandler may be nil.
func NewServer(cfg config.WebSettings, backend Backend, status *StatusBroadcaster, metricsHandler http.Handler) *Server {
	if status == nil {
		status = NewStatusBroadcaster()
	}
	return &Server{
		host:    cfg.Host,
		port:    cfg.Port,
		backend: backend,
		status:  status,
		metrics: metricsHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     sameHostOrigin,
		},
	}
}

func (s *Server) GetStatusBroadcaster() *StatusBroadcaster {
	return s.status
}

func getAuthCredentials() (username, password string) {
	return os.Getenv("DASHBOARD_USERNAME"), os.Getenv("DASHBOARD_PASSWORD")
}

func authEnabled() bool {
	username, password := getAuthCredentials()
	return username != "" && password != ""
}

func basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expectedUser, expectedPass := getAuthCredentials()
		if expectedUser == "" || expectedPass == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || user != expectedUser || pass != expectedPass {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm="%s"`, constants.AppTitle))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the routed API, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Account routes
	mux.HandleFunc("/api/credential", s.handleAPICredential)
	mux.HandleFunc("/api/user", s.handleAPIUser)

	// Follower routes
	mux.HandleFunc("/api/followers", s.handleAPIFollowers)
	mux.HandleFunc("/api/following", s.handleAPIFollowing)
	mux.HandleFunc("/api/following/", s.handleAPIFollowingUser)
	mux.HandleFunc("/api/unfollowers", s.handleAPIUnfollowers)
	mux.HandleFunc("/api/unfollowers/count", s.handleAPIUnfollowersCount)
	mux.HandleFunc("/api/refresh", s.handleAPIRefresh)

	// Settings routes
	mux.HandleFunc("/api/settings", s.handleAPISettings)
	mux.HandleFunc("/api/settings/reset", s.handleAPISettingsReset)

	// Data routes
	mux.HandleFunc("/api/visualization", s.handleAPIVisualization)

	// Notifications routes
	mux.HandleFunc("/api/notifications/history", s.handleAPINotificationsHistory)
	mux.HandleFunc("/api/notifications/test", s.handleAPINotificationsTest)

	// Status routes
	mux.HandleFunc("/api/status", s.handleAPIStatus)
	mux.HandleFunc("/api/status/stream", s.handleAPIStatusStream)
	mux.HandleFunc("/api/status/ws", s.handleAPIStatusWS)

	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	if authEnabled() {
		return basicAuthMiddleware(mux)
	}
	return mux
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	if authEnabled() {
		slog.Info("Web server authentication enabled")
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Web server starting", "url", "http://"+listener.Addr().String()+"/")

	go func() {
		if err := s.server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Web server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) {
	if s.server == nil {
		return
	}
	if err := s.server.Shutdown(ctx); err != nil {
		_ = s.server.Close()
	}
}
