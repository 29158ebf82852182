package shortinterest

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Handler handles short-interest HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new short-interest handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "short_interest").Logger(),
	}
}

// HandleSnapshot handles GET /api/short-interest
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	body, hit := h.service.Snapshot(r.Context())

	cacheState := "MISS"
	if hit {
		cacheState = "HIT"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheState)
	if _, err := w.Write(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to write short-interest response")
	}
}
