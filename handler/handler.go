package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cityscout-app/cityscout/core/logger"
	"github.com/cityscout-app/cityscout/integration/chat"
	"github.com/cityscout-app/cityscout/integration/places"
	"github.com/cityscout-app/cityscout/middleware"
	"github.com/cityscout-app/cityscout/pkg/admission"
)

// PlaceSearcher is the place-directory surface the handlers need.
// *places.Client satisfies this interface.
type PlaceSearcher interface {
	Search(ctx context.Context, credential, query string) ([]places.Place, error)
}

// Config wires the handlers to their collaborators.
type Config struct {
	Logger *slog.Logger

	ChatProvider chat.Provider
	ChatPipeline *admission.Pipeline[chat.Reply]

	Places         PlaceSearcher
	PlacesPipeline *admission.Pipeline[[]places.Place]
}

// Handler serves the proxy endpoints.
type Handler struct {
	log            *slog.Logger
	chatProvider   chat.Provider
	chatPipeline   *admission.Pipeline[chat.Reply]
	places         PlaceSearcher
	placesPipeline *admission.Pipeline[[]places.Place]
}

// New validates the configuration and creates a Handler.
func New(cfg Config) (*Handler, error) {
	if cfg.ChatProvider == nil {
		return nil, errors.New("chat provider is required")
	}
	if cfg.ChatPipeline == nil {
		return nil, errors.New("chat admission pipeline is required")
	}
	if cfg.Places == nil {
		return nil, errors.New("place searcher is required")
	}
	if cfg.PlacesPipeline == nil {
		return nil, errors.New("places admission pipeline is required")
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Handler{
		log:            log,
		chatProvider:   cfg.ChatProvider,
		chatPipeline:   cfg.ChatPipeline,
		places:         cfg.Places,
		placesPipeline: cfg.PlacesPipeline,
	}, nil
}

// writeAdmissionError maps pipeline errors to HTTP responses. Rate-limit
// headers are expected to be set already from the pipeline result.
func (h *Handler) writeAdmissionError(w http.ResponseWriter, r *http.Request, route string, err error) {
	var rle *admission.RateLimitError

	switch {
	case errors.As(err, &rle):
		w.Header().Set("Retry-After", retryAfterSeconds(rle.Result.RetryAfter))
		respondError(w, http.StatusTooManyRequests, "rate limit exceeded")

	case errors.Is(err, admission.ErrServiceUnavailable):
		// One body for every quota-layer cause; the distinction lives in
		// the pipeline's internal logs only.
		respondError(w, http.StatusServiceUnavailable, "service temporarily unavailable")

	default:
		h.log.ErrorContext(r.Context(), "upstream call failed",
			logger.Error(err),
			logger.Path(route),
			logger.RequestID(middleware.GetRequestID(r.Context())),
		)
		respondError(w, http.StatusBadGateway, "upstream service error")
	}
}

// audit emits one record per proxied request with the outcome a reviewer
// needs to reconstruct cost: who (truncated client id), what, and whether an
// upstream call was spent.
func (h *Handler) audit(r *http.Request, route, clientID, outcome string, cached bool) {
	h.log.InfoContext(r.Context(), "proxy request",
		logger.Event(route),
		logger.RequestID(middleware.GetRequestID(r.Context())),
		logger.ClientID(truncateClientID(clientID)),
		slog.String("outcome", outcome),
		slog.Bool("cached", cached),
	)
}

// truncateClientID keeps enough of the hash to correlate log lines without
// writing full identifiers everywhere.
func truncateClientID(id string) string {
	const keep = 12
	if len(id) <= keep {
		return id
	}
	return id[:keep]
}
