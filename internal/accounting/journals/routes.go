package journals

import "github.com/go-chi/chi/v5"

// MountRoutes registers journal endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/journals", h.post)
	r.Post("/journals/reverse", h.reverse)
	r.Get("/journals/groups/{groupID}", h.group)
}
