package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public — no auth required.
	r.Get("/health", g.handleHealth())
	if g.metrics != nil {
		r.Handle("/metrics", g.metrics.Handler())
	}

	// Admin endpoints — auth required. Not mounted if no auth configured.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth))
			r.Get("/status", g.handleStatus())
			r.Route("/api", func(r chi.Router) {
				r.Get("/config", g.handleGetConfig())
				r.Put("/config", g.handlePutConfig())
				r.Get("/conversations", g.handleListConversations())
				r.Delete("/conversations", g.handleDeleteAllConversations())
				r.Delete("/conversations/{channelID}", g.handleDeleteConversation())
				r.Get("/memory", g.handleMemory())
				r.Get("/knowledge", g.handleListKnowledge())
				r.Post("/knowledge", g.handleAddKnowledge())
				r.Delete("/knowledge/{id}", g.handleDeleteKnowledge())
			})
		})
	}

	return r
}
