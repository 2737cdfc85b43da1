// Package testserver provides an HTTP and WebSocket target for load
// scenarios in tests and local runs.
package testserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// Server is a configurable target server.
type Server struct {
	mux       *http.ServeMux
	requestID atomic.Int64
}

// NewServer creates a server with all endpoints registered.
func NewServer() *Server {
	s := &Server{mux: http.NewServeMux()}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/status/", s.handleStatus)
	s.mux.HandleFunc("/delay/", s.handleDelay)
	s.mux.HandleFunc("/echo", s.handleEcho)
	s.mux.HandleFunc("/json", s.handleJSON)
	s.mux.HandleFunc("/auth/login", s.handleLogin)
	s.mux.HandleFunc("/users/", s.handleUsers)
	s.mux.HandleFunc("/ws", s.handleWS)
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// handleStatus responds with the status code named in the path, e.g.
// GET /status/503.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, "%d %s", code, http.StatusText(code))
}

// handleDelay waits the number of milliseconds named in the path before
// responding, e.g. GET /delay/250.
func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	ms, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/delay/"))
	if err != nil || ms < 0 {
		http.Error(w, "invalid delay", http.StatusBadRequest)
		return
	}
	select {
	case <-r.Context().Done():
		return
	case <-time.After(time.Duration(ms) * time.Millisecond):
	}
	fmt.Fprintf(w, "delayed %dms", ms)
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(body)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"id":        s.requestID.Add(1),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"method":    r.Method,
		"path":      r.URL.Path,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleLogin simulates authentication and returns a bearer token for
// subsequent requests.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := s.requestID.Add(1)
	response := map[string]any{
		"auth": map[string]any{
			"token":      fmt.Sprintf("token-%d-%d", id, time.Now().UnixNano()),
			"expires_in": 3600,
		},
		"user": map[string]any{"id": id, "name": "testuser"},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimPrefix(r.URL.Path, "/users/")
	if userID == "" {
		userID = "unknown"
	}
	response := map[string]any{
		"user_id":       userID,
		"name":          "Test User",
		"authenticated": r.Header.Get("Authorization") != "",
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleWS upgrades to a WebSocket and echoes every frame back.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			return
		}
		if err := ws.Write(ctx, typ, data); err != nil {
			return
		}
	}
}
