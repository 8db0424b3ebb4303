package handler

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/cityscout-app/cityscout/integration/places"
	"github.com/cityscout-app/cityscout/middleware"
	"github.com/cityscout-app/cityscout/pkg/clientid"
)

const maxQueryRunes = 200

type placesResponse struct {
	Results   []places.Place `json:"results"`
	Cached    bool           `json:"cached"`
	RequestID string         `json:"request_id,omitempty"`
}

// PlacesSearch proxies GET /api/places/search?q=... to the place directory.
func (h *Handler) PlacesSearch(w http.ResponseWriter, r *http.Request) {
	query := normalizeQuery(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	if utf8.RuneCountInString(query) > maxQueryRunes {
		respondError(w, http.StatusBadRequest, "query is too long")
		return
	}

	clientID := clientid.Derive(r)

	res, err := h.placesPipeline.Do(r.Context(), clientID, "places:"+query,
		func(ctx context.Context, credential string) ([]places.Place, error) {
			return h.places.Search(ctx, credential, query)
		})

	setRateLimitHeaders(w, res.RateLimit)

	if err != nil {
		h.audit(r, "places_search", clientID, "denied", false)
		h.writeAdmissionError(w, r, "/api/places/search", err)
		return
	}

	results := res.Value
	if results == nil {
		results = []places.Place{}
	}

	h.audit(r, "places_search", clientID, "served", res.FromCache)
	respondJSON(w, http.StatusOK, placesResponse{
		Results:   results,
		Cached:    res.FromCache,
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

// normalizeQuery lowercases and collapses whitespace so trivially different
// spellings of the same search share a cache entry.
func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
