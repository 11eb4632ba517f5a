package gateway

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status         string `json:"status"` // "ok" or "degraded"
	ActiveChannels int    `json:"active_channels"`
	DurableStore   bool   `json:"durable_store"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Status degrades to "degraded" when the bot runs memory-only.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status:       "ok",
			DurableStore: g.conversations != nil,
		}
		if g.manager != nil {
			resp.ActiveChannels = g.manager.ChannelCount()
		}
		if !resp.DurableStore {
			resp.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
