package quote

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/quotedesk/edgeproxy/internal/clients/finnhub"
)

// Handler handles quote HTTP requests
type Handler struct {
	service   *Service
	hasAPIKey bool
	log       zerolog.Logger
}

// NewHandler creates a new quote handler
func NewHandler(service *Service, hasAPIKey bool, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		hasAPIKey: hasAPIKey,
		log:       log.With().Str("handler", "quote").Logger(),
	}
}

// HandleQuote handles GET /api/quote?symbol=X
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	symbol, err := NormalizeSymbol(r.URL.Query().Get("symbol"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid symbol")
		return
	}

	if !h.hasAPIKey {
		h.log.Error().Msg("Quote requested but no Finnhub API key is configured")
		writeError(w, http.StatusInternalServerError, "API key not configured")
		return
	}

	result, err := h.service.Get(r.Context(), symbol)
	if err != nil {
		// Hard failure with no cached fallback: forward the upstream status
		// where one exists, otherwise treat it as a bad gateway.
		status := http.StatusBadGateway
		var ue *finnhub.UpstreamError
		if errors.As(err, &ue) {
			status = ue.StatusCode
		}
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Quote fetch failed with no cached fallback")
		writeError(w, status, "Upstream quote fetch failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", string(result.State))
	if _, err := w.Write(result.Body); err != nil {
		h.log.Error().Err(err).Msg("Failed to write quote response")
	}
}

// writeError writes a structured JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
