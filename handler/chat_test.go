package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityscout-app/cityscout/handler"
	"github.com/cityscout-app/cityscout/integration/chat"
	"github.com/cityscout-app/cityscout/integration/places"
	"github.com/cityscout-app/cityscout/pkg/admission"
	"github.com/cityscout-app/cityscout/pkg/cache"
	"github.com/cityscout-app/cityscout/pkg/quota"
	"github.com/cityscout-app/cityscout/pkg/ratelimiter"
)

type stubProvider struct {
	reply chat.Reply
	err   error
	calls int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Reply(ctx context.Context, credential, message string) (chat.Reply, error) {
	s.calls++
	if s.err != nil {
		return chat.Reply{}, s.err
	}
	return s.reply, nil
}

type stubSearcher struct {
	results []places.Place
	err     error
	calls   int
}

func (s *stubSearcher) Search(ctx context.Context, credential, query string) ([]places.Place, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

type harness struct {
	router   http.Handler
	provider *stubProvider
	searcher *stubSearcher
}

type harnessConfig struct {
	capacity    int
	chatQuota   int
	placesQuota int
	// unconfigured drops the quota credentials so every grant is denied as
	// a deployment defect.
	unconfigured bool
	providerErr  error
	searcherErr  error
}

func newHarness(t *testing.T, cfg harnessConfig) *harness {
	t.Helper()

	if cfg.capacity == 0 {
		cfg.capacity = 100
	}

	limiter, err := ratelimiter.New(ratelimiter.Config{Capacity: cfg.capacity, Window: time.Minute})
	require.NoError(t, err)

	services := map[string]quota.ServiceConfig{
		"chat-service":   {Credential: "chat-key", DailyLimit: cfg.chatQuota},
		"places-service": {Credential: "places-key", DailyLimit: cfg.placesQuota},
	}
	if cfg.unconfigured {
		services = nil
	}
	tracker := quota.NewTracker(services)

	chatCache, err := cache.New[chat.Reply](time.Hour)
	require.NoError(t, err)
	placesCache, err := cache.New[[]places.Place](time.Hour)
	require.NoError(t, err)

	chatPipeline, err := admission.New("chat-service", limiter, tracker,
		admission.WithStore[chat.Reply](chatCache))
	require.NoError(t, err)

	placesPipeline, err := admission.New("places-service", limiter, tracker,
		admission.WithStore[[]places.Place](placesCache))
	require.NoError(t, err)

	provider := &stubProvider{reply: chat.Reply{Text: "Visit the old town.", Model: "stub-1"}, err: cfg.providerErr}
	searcher := &stubSearcher{
		results: []places.Place{{ID: "p1", Name: "Old Town Cafe", Address: "1 Main St"}},
		err:     cfg.searcherErr,
	}

	h, err := handler.New(handler.Config{
		ChatProvider:   provider,
		ChatPipeline:   chatPipeline,
		Places:         searcher,
		PlacesPipeline: placesPipeline,
	})
	require.NoError(t, err)

	router := handler.NewRouter(h, handler.RouterConfig{
		Health: map[string]handler.Healthchecker{"ratelimiter": limiter},
	})

	return &harness{router: router, provider: provider, searcher: searcher}
}

func postChat(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
	req.RemoteAddr = "203.0.113.5:1234"
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	t.Parallel()

	t.Run("serves reply with rate limit headers", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, harnessConfig{capacity: 5})
		rec := postChat(t, h.router, `{"message":"what to see in Porto?"}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Reply     string `json:"reply"`
			Model     string `json:"model"`
			Cached    bool   `json:"cached"`
			RequestID string `json:"request_id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Visit the old town.", resp.Reply)
		assert.Equal(t, "stub-1", resp.Model)
		assert.False(t, resp.Cached)
		assert.NotEmpty(t, resp.RequestID)

		assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))

		resetMs, err := strconv.ParseInt(rec.Header().Get("X-RateLimit-Reset"), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, resetMs, time.Now().UnixMilli())
	})

	t.Run("identical message served from cache without second upstream call", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, harnessConfig{})

		first := postChat(t, h.router, `{"message":"best ramen?"}`)
		require.Equal(t, http.StatusOK, first.Code)

		second := postChat(t, h.router, `{"message":"best ramen?"}`)
		require.Equal(t, http.StatusOK, second.Code)

		var resp struct {
			Cached bool `json:"cached"`
		}
		require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
		assert.True(t, resp.Cached)
		assert.Equal(t, 1, h.provider.calls)
	})

	t.Run("whitespace variants share a cache entry", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, harnessConfig{})

		postChat(t, h.router, `{"message":"best ramen?"}`)
		rec := postChat(t, h.router, `{"message":"  best ramen?  "}`)

		var resp struct {
			Cached bool `json:"cached"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Cached)
		assert.Equal(t, 1, h.provider.calls)
	})

	t.Run("rate limit denial returns 429 with retry information", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, harnessConfig{capacity: 1})

		require.Equal(t, http.StatusOK, postChat(t, h.router, `{"message":"one"}`).Code)

		rec := postChat(t, h.router, `{"message":"two"}`)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))

		retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
		require.NoError(t, err)
		assert.Positive(t, retryAfter)

		// Denied requests never reach the provider.
		assert.Equal(t, 1, h.provider.calls)
	})

	t.Run("quota exhaustion returns generic 503", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, harnessConfig{chatQuota: 1})

		require.Equal(t, http.StatusOK, postChat(t, h.router, `{"message":"one"}`).Code)

		rec := postChat(t, h.router, `{"message":"two"}`)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"error":"service temporarily unavailable"}`, rec.Body.String())
	})

	t.Run("unconfigured service is indistinguishable from exhausted quota", func(t *testing.T) {
		t.Parallel()

		exhausted := newHarness(t, harnessConfig{chatQuota: 1})
		postChat(t, exhausted.router, `{"message":"one"}`)
		exhaustedRec := postChat(t, exhausted.router, `{"message":"two"}`)

		unconfigured := newHarness(t, harnessConfig{unconfigured: true})
		unconfiguredRec := postChat(t, unconfigured.router, `{"message":"two"}`)

		assert.Equal(t, exhaustedRec.Code, unconfiguredRec.Code)
		assert.JSONEq(t, exhaustedRec.Body.String(), unconfiguredRec.Body.String())
	})

	t.Run("provider failure returns 502", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, harnessConfig{providerErr: assert.AnError})

		rec := postChat(t, h.router, `{"message":"hello"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("input validation", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t, harnessConfig{})

		assert.Equal(t, http.StatusBadRequest, postChat(t, h.router, `not json`).Code)
		assert.Equal(t, http.StatusBadRequest, postChat(t, h.router, `{"message":""}`).Code)
		assert.Equal(t, http.StatusBadRequest, postChat(t, h.router, `{"message":"   "}`).Code)

		long := strings.Repeat("a", 2001)
		assert.Equal(t, http.StatusBadRequest, postChat(t, h.router, `{"message":"`+long+`"}`).Code)

		// Invalid input must not consume provider calls.
		assert.Equal(t, 0, h.provider.calls)
	})
}
