package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/cityscout-app/cityscout/integration/chat"
	"github.com/cityscout-app/cityscout/middleware"
	"github.com/cityscout-app/cityscout/pkg/clientid"
)

const (
	// maxMessageRunes bounds chat input; anything longer is rejected before
	// it can spend a token or a quota grant.
	maxMessageRunes = 2000

	maxChatBodyBytes = 64 << 10 // 64 KB
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	Model     string `json:"model,omitempty"`
	Cached    bool   `json:"cached"`
	RequestID string `json:"request_id,omitempty"`
}

// Chat proxies POST /api/chat to the configured assistant provider.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}
	if utf8.RuneCountInString(message) > maxMessageRunes {
		respondError(w, http.StatusBadRequest, "message is too long")
		return
	}

	clientID := clientid.Derive(r)

	res, err := h.chatPipeline.Do(r.Context(), clientID, chatCacheKey(message),
		func(ctx context.Context, credential string) (chat.Reply, error) {
			return h.chatProvider.Reply(ctx, credential, message)
		})

	setRateLimitHeaders(w, res.RateLimit)

	if err != nil {
		h.audit(r, "chat", clientID, "denied", false)
		h.writeAdmissionError(w, r, "/api/chat", err)
		return
	}

	h.audit(r, "chat", clientID, "served", res.FromCache)
	respondJSON(w, http.StatusOK, chatResponse{
		Reply:     res.Value.Text,
		Model:     res.Value.Model,
		Cached:    res.FromCache,
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

// chatCacheKey hashes the trimmed message so identical questions share one
// cache entry without storing raw user text as a map key.
func chatCacheKey(message string) string {
	sum := sha256.Sum256([]byte(message))
	return "chat:" + hex.EncodeToString(sum[:])
}
