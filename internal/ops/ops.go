// Package ops exposes a small operational HTTP surface next to the chat
// protocol: liveness and a session snapshot. It is not part of the client
// protocol.
package ops

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gomessenger/internal/server"
)

type Handler struct {
	registry *server.Registry
	db       *gorm.DB
	log      *zap.Logger
	started  time.Time
}

func NewHandler(registry *server.Registry, db *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{registry: registry, db: db, log: log, started: time.Now()}
}

func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Online        int      `json:"online"`
		Users         []string `json:"users"`
		UptimeSeconds int64    `json:"uptime_seconds"`
	}{
		Online:        h.registry.Count(),
		Users:         h.registry.Usernames(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
