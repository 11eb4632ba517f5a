package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/figmenta/copilot/internal/metrics"
	"github.com/figmenta/copilot/internal/store"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime          time.Duration    `json:"uptime_seconds"`
	Metrics         metrics.Snapshot `json:"metrics"`
	ActiveChannels  int              `json:"active_channels"`
	PersistFailures int64            `json:"persist_failures"`
	Heartbeat       *store.BotStatus `json:"heartbeat,omitempty"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Uptime: time.Since(g.startedAt).Truncate(time.Second),
		}
		if g.metrics != nil {
			resp.Metrics = g.metrics.Snapshot()
		}
		if g.manager != nil {
			resp.ActiveChannels = g.manager.ChannelCount()
			resp.PersistFailures = g.manager.PersistFailures()
		}
		if g.status != nil {
			if hb, err := g.status.GetStatus(r.Context()); err == nil {
				resp.Heartbeat = &hb
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
