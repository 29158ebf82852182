package filings

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Handler handles filings HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new filings handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "filings").Logger(),
	}
}

// HandleRecent handles GET /api/filings/s3
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	body, hit := h.service.Recent(r.Context())

	cacheState := "MISS"
	if hit {
		cacheState = "HIT"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", cacheState)
	if _, err := w.Write(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to write filings response")
	}
}
