// Package gateway provides an HTTP server for administration and
// monitoring. It binds to loopback by default and follows the module
// system pattern.
package gateway

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/figmenta/copilot/internal/memory"
	"github.com/figmenta/copilot/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleGetConfig returns the bot configuration record.
func (g *Gateway) handleGetConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.configs == nil {
			http.Error(w, "config store not available", http.StatusServiceUnavailable)
			return
		}

		cfg, err := g.configs.GetConfig(r.Context())
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "config not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "failed to load config", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

// handlePutConfig replaces the bot configuration record.
func (g *Gateway) handlePutConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.configs == nil {
			http.Error(w, "config store not available", http.StatusServiceUnavailable)
			return
		}

		var cfg store.BotConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "invalid config payload", http.StatusBadRequest)
			return
		}
		cfg.UpdatedAt = time.Now()

		if err := g.configs.SaveConfig(r.Context(), cfg); err != nil {
			g.logger.Error("config save failed", "error", err)
			http.Error(w, "failed to save config", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

// handleListConversations returns every durable conversation record.
func (g *Gateway) handleListConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.conversations == nil {
			http.Error(w, "conversation store not available", http.StatusServiceUnavailable)
			return
		}

		recs, err := g.conversations.List(r.Context())
		if err != nil {
			http.Error(w, "failed to list conversations", http.StatusInternalServerError)
			return
		}
		if recs == nil {
			recs = []memory.ConversationRecord{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

// handleDeleteConversation clears one channel's memory and durable
// record.
func (g *Gateway) handleDeleteConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID := chi.URLParam(r, "channelID")
		if channelID == "" {
			http.Error(w, "missing channel id", http.StatusBadRequest)
			return
		}
		if g.manager == nil {
			http.Error(w, "memory manager not available", http.StatusServiceUnavailable)
			return
		}

		if err := g.manager.Clear(r.Context(), channelID); err != nil {
			g.logger.Warn("conversation delete: durable record not removed",
				"channel_id", channelID, "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleDeleteAllConversations clears every cached channel and wipes
// the durable store.
func (g *Gateway) handleDeleteAllConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.manager == nil {
			http.Error(w, "memory manager not available", http.StatusServiceUnavailable)
			return
		}

		for _, snap := range g.manager.ListAll() {
			if err := g.manager.Clear(r.Context(), snap.ChannelID); err != nil {
				g.logger.Warn("conversation wipe: durable record not removed",
					"channel_id", snap.ChannelID, "error", err)
			}
		}
		if g.conversations != nil {
			if err := g.conversations.DeleteAll(r.Context()); err != nil {
				http.Error(w, "failed to wipe conversations", http.StatusInternalServerError)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleMemory returns the in-memory cache snapshots, cache only, no
// store interaction.
func (g *Gateway) handleMemory() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if g.manager == nil {
			http.Error(w, "memory manager not available", http.StatusServiceUnavailable)
			return
		}

		snaps := g.manager.ListAll()
		if snaps == nil {
			snaps = []memory.Snapshot{}
		}
		writeJSON(w, http.StatusOK, snaps)
	}
}

// handleListKnowledge returns every knowledge base document.
func (g *Gateway) handleListKnowledge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.knowledge == nil {
			http.Error(w, "knowledge store not available", http.StatusServiceUnavailable)
			return
		}

		docs, err := g.knowledge.ListDocs(r.Context())
		if err != nil {
			http.Error(w, "failed to list documents", http.StatusInternalServerError)
			return
		}
		if docs == nil {
			docs = []store.KnowledgeDoc{}
		}
		writeJSON(w, http.StatusOK, docs)
	}
}

// handleAddKnowledge inserts a knowledge base document. A missing ID is
// generated server-side.
func (g *Gateway) handleAddKnowledge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.knowledge == nil {
			http.Error(w, "knowledge store not available", http.StatusServiceUnavailable)
			return
		}

		var doc store.KnowledgeDoc
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			http.Error(w, "invalid document payload", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(doc.Title) == "" {
			http.Error(w, "missing document title", http.StatusBadRequest)
			return
		}
		if doc.ID == "" {
			doc.ID = newID()
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = time.Now()
		}

		if err := g.knowledge.AddDoc(r.Context(), doc); err != nil {
			http.Error(w, "failed to add document", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
	}
}

// handleDeleteKnowledge removes a knowledge base document by ID.
func (g *Gateway) handleDeleteKnowledge() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.knowledge == nil {
			http.Error(w, "knowledge store not available", http.StatusServiceUnavailable)
			return
		}

		id := chi.URLParam(r, "id")
		if id == "" {
			http.Error(w, "missing document id", http.StatusBadRequest)
			return
		}
		if err := g.knowledge.DeleteDoc(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "document not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to delete document", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// newID returns a random 16-hex-char identifier.
func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
