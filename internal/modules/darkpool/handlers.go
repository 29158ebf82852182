package darkpool

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler handles dark-pool HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new dark-pool handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "dark_pool").Logger(),
	}
}

// HandleLookup handles GET /api/dark-pool?symbols=A,B,C
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	symbols, err := ParseSymbols(r.URL.Query().Get("symbols"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "No valid symbols provided"})
		return
	}

	body := h.service.Lookup(r.Context(), symbols)

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to write dark-pool response")
	}
}
