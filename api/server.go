package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/thebelin/cosmic-orbiters/game/config"
	"github.com/thebelin/cosmic-orbiters/game/hub"
	"github.com/thebelin/cosmic-orbiters/transport/websocket"
)

// Server represents the HTTP server: channel endpoints, the REST admin
// surface, and static files.
type Server struct {
	hub       *hub.Hub
	configs   *config.Manager
	router    *mux.Router
	staticDir string
}

// NewServer creates the HTTP server around a hub and a preset manager.
// configs may be nil, in which case preset routes report failure.
func NewServer(h *hub.Hub, configs *config.Manager, staticDir string) *Server {
	s := &Server{
		hub:       h,
		configs:   configs,
		router:    mux.NewRouter(),
		staticDir: staticDir,
	}

	s.setupRoutes()
	return s
}

// The transport's connection type must keep satisfying the hub's view of a
// connection for the channel routes below to work.
var _ hub.Conn = (*websocket.Conn)(nil)

// setupRoutes configures channel, API, and static routes.
func (s *Server) setupRoutes() {
	// Role channels, one WebSocket endpoint per namespace.
	s.router.HandleFunc(hub.ChannelServer, websocket.Handler(hub.ChannelServer, func(c *websocket.Conn) { s.hub.AttachServer(c) }))
	s.router.HandleFunc(hub.ChannelPlayer, websocket.Handler(hub.ChannelPlayer, func(c *websocket.Conn) { s.hub.AttachPlayer(c) }))
	s.router.HandleFunc(hub.ChannelControls, websocket.Handler(hub.ChannelControls, func(c *websocket.Conn) { s.hub.AttachControls(c) }))
	s.router.HandleFunc(hub.ChannelStream, websocket.Handler(hub.ChannelStream, func(c *websocket.Conn) { s.hub.AttachStream(c) }))
	s.router.HandleFunc(hub.ChannelAdmin, websocket.Handler(hub.ChannelAdmin, func(c *websocket.Conn) { s.hub.AttachAdmin(c) }))

	// REST admin surface.
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/game", s.handleCreate).Methods("POST")
	api.HandleFunc("/game/start", s.handleStart).Methods("POST")
	api.HandleFunc("/game/end", s.handleEnd).Methods("POST")
	api.HandleFunc("/kick", s.handleKick).Methods("POST")
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleSaveConfig).Methods("POST")
	api.HandleFunc("/configs/{id}", s.handleGetConfig).Methods("GET")

	// Static files for the role clients.
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.staticDir)))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// readPayload reads the request body as an opaque JSON payload. An empty
// body becomes an empty object; anything that is not valid JSON is
// rejected.
func readPayload(r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(body) {
		return nil, errors.New("body is not valid JSON")
	}
	return json.RawMessage(body), nil
}

// Hub handlers

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.hub.State())
}

// handleCreate performs an admin create. The body is either forwarded
// verbatim or, if it carries a config_id, replaced with the named preset.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ref struct {
		ConfigID string `json:"config_id"`
	}
	json.Unmarshal(payload, &ref)

	if ref.ConfigID != "" {
		if s.configs == nil {
			respondError(w, http.StatusInternalServerError, "no preset storage configured")
			return
		}
		preset, err := s.configs.Load(ref.ConfigID)
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		payload = preset
	}

	s.hub.AdminCreate(payload)
	respondJSON(w, http.StatusOK, s.hub.State())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.hub.AdminStart(payload)
	respondJSON(w, http.StatusOK, s.hub.State())
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.hub.AdminEnd(payload)
	respondJSON(w, http.StatusOK, s.hub.State())
}

func (s *Server) handleKick(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.hub.Kick(payload)
	respondJSON(w, http.StatusOK, map[string]string{"message": "kick forwarded"})
}

// Configuration handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	if s.configs == nil {
		respondError(w, http.StatusInternalServerError, "no preset storage configured")
		return
	}

	infos, err := s.configs.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if infos == nil {
		infos = []config.Info{}
	}

	respondJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.configs == nil {
		respondError(w, http.StatusInternalServerError, "no preset storage configured")
		return
	}

	id := mux.Vars(r)["id"]
	preset, err := s.configs.Load(id)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(preset)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	if s.configs == nil {
		respondError(w, http.StatusInternalServerError, "no preset storage configured")
		return
	}

	var req struct {
		ConfigID string          `json:"config_id"`
		Config   json.RawMessage `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ConfigID == "" {
		respondError(w, http.StatusBadRequest, "config_id is required")
		return
	}

	if err := s.configs.Save(req.ConfigID, req.Config); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message":   "Configuration saved",
		"config_id": req.ConfigID,
	})
}
