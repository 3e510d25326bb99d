package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/medrent-erp/medrent-erp/internal/rbac"
)

// MountRoutes attaches the order endpoints. Reading requires the view
// permission; transitions additionally enforce submit rights per action
// inside the workflow engine.
func (h *Handler) MountRoutes(r chi.Router, authz rbac.Middleware) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authz.RequireAny(rbac.PermView, rbac.PermSubmit))
		r.Get("/", h.list)
		r.Get("/{name}", h.get)
		r.Get("/{name}/actions", h.actions)
		r.Post("/{name}/actions/{action}", h.execute)
	})
}
