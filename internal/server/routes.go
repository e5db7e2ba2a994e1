package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal"
	"github.com/skip2/go-qrcode"
)

const (
	qrSize       = 320
	historyLimit = 20
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	r.HandleFunc("/", s.HelloWorldHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)

	r.HandleFunc("/rooms", s.ListRoomsHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms/code", s.NewCodeHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}/qr", s.QRHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}/history", s.HistoryHandler).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.hub.HandleWebSocket(s.registry))

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS Headers
		w.Header().Set("Access-Control-Allow-Origin", "*") // Wildcard allows all origins
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":      "up",
		"rooms":       len(s.registry.ListSummaries()),
		"connections": s.hub.Len(),
	}
	status := http.StatusOK
	if s.db != nil {
		db := s.db.Health(r.Context())
		health["database"] = db
		if db["status"] != "up" {
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, health)
}

func (s *Server) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	respond(w, startTime, http.StatusOK, s.registry.ListSummaries())
}

func (s *Server) NewCodeHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	respond(w, startTime, http.StatusOK, s.registry.NewCode())
}

// QRHandler renders a PNG QR code pointing at the room's join URL.
func (s *Server) QRHandler(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if !s.registry.Exists(code) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	png, err := qrcode.Encode(joinURL(r, code), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("room", code).Msg("failed to render qr code")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// HistoryHandler lists the archived rounds of a room.
func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	if s.db == nil {
		respond(w, startTime, http.StatusNotFound, "Round archive is disabled")
		return
	}

	rounds, err := s.db.Recent(r.Context(), mux.Vars(r)["code"], historyLimit)
	if err != nil {
		log.Error().Err(err).Msg("failed to load round history")
		respond(w, startTime, http.StatusInternalServerError, "Unable to load history")
		return
	}
	respond(w, startTime, http.StatusOK, rounds)
}

func joinURL(r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s/?room=%s", scheme, r.Host, url.QueryEscape(code))
}

func respond(w http.ResponseWriter, startTime int64, status int, data any) {
	resp := internal.Response{
		StatusCode:    status,
		RespStartTime: startTime,
		Data:          data,
	}

	// Calculate response times
	endTime := time.Now().UnixMilli()
	resp.RespEndTime = endTime
	resp.NetRespTime = endTime - startTime

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("error encoding response")
	}
}
