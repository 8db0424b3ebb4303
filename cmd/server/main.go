package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/cityscout-app/cityscout/core/config"
	"github.com/cityscout-app/cityscout/core/logger"
	"github.com/cityscout-app/cityscout/core/server"
	"github.com/cityscout-app/cityscout/handler"
	"github.com/cityscout-app/cityscout/integration/chat"
	"github.com/cityscout-app/cityscout/integration/places"
	"github.com/cityscout-app/cityscout/pkg/admission"
	"github.com/cityscout-app/cityscout/pkg/cache"
	"github.com/cityscout-app/cityscout/pkg/metrics"
	"github.com/cityscout-app/cityscout/pkg/quota"
	"github.com/cityscout-app/cityscout/pkg/ratelimiter"
)

const (
	chatService   = "chat-service"
	placesService = "places-service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(cfg.Log, logger.WithAttr(slog.String("app", "cityscout")))
	logger.SetAsDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	chatLimiter, err := ratelimiter.New(cfg.ChatLimiter,
		ratelimiter.WithLogger(log.With(logger.Component("ratelimiter"), logger.Service(chatService))))
	if err != nil {
		return fmt.Errorf("chat rate limiter: %w", err)
	}

	placesLimiter, err := ratelimiter.New(cfg.PlacesLimiter,
		ratelimiter.WithLogger(log.With(logger.Component("ratelimiter"), logger.Service(placesService))))
	if err != nil {
		return fmt.Errorf("places rate limiter: %w", err)
	}

	tracker := quota.NewTracker(map[string]quota.ServiceConfig{
		chatService:   {Credential: cfg.Chat.APIKey, DailyLimit: cfg.Chat.DailyLimit},
		placesService: {Credential: cfg.Places.APIKey, DailyLimit: cfg.Places.DailyLimit},
	}, quota.WithLogger(log.With(logger.Component("quota"))))

	chatCache, err := cache.New[chat.Reply](cfg.Chat.CacheTTL,
		cache.WithLogger[chat.Reply](log.With(logger.Component("cache"), logger.Service(chatService))))
	if err != nil {
		return fmt.Errorf("chat cache: %w", err)
	}

	placesCache, err := cache.New[[]places.Place](cfg.Places.CacheTTL,
		cache.WithLogger[[]places.Place](log.With(logger.Component("cache"), logger.Service(placesService))))
	if err != nil {
		return fmt.Errorf("places cache: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	chatPipeline, err := admission.New(chatService, chatLimiter, tracker,
		admission.WithStore[chat.Reply](chatCache),
		admission.WithLogger[chat.Reply](log.With(logger.Component("admission"))),
		admission.WithMetrics[chat.Reply](m))
	if err != nil {
		return fmt.Errorf("chat pipeline: %w", err)
	}

	placesPipeline, err := admission.New(placesService, placesLimiter, tracker,
		admission.WithStore[[]places.Place](placesCache),
		admission.WithLogger[[]places.Place](log.With(logger.Component("admission"))),
		admission.WithMetrics[[]places.Place](m))
	if err != nil {
		return fmt.Errorf("places pipeline: %w", err)
	}

	provider, err := buildChatProvider(cfg.Chat)
	if err != nil {
		return err
	}

	placesOpts := []places.Option{places.WithMaxResults(cfg.Places.MaxResults)}
	if cfg.Places.BaseURL != "" {
		placesOpts = append(placesOpts, places.WithBaseURL(cfg.Places.BaseURL))
	}
	placesClient := places.NewClient(placesOpts...)

	h, err := handler.New(handler.Config{
		Logger:         log.With(logger.Component("handler")),
		ChatProvider:   provider,
		ChatPipeline:   chatPipeline,
		Places:         placesClient,
		PlacesPipeline: placesPipeline,
	})
	if err != nil {
		return fmt.Errorf("handler: %w", err)
	}

	router := handler.NewRouter(h, handler.RouterConfig{
		Logger:   log,
		Metrics:  m,
		Registry: registry,
		Health: map[string]handler.Healthchecker{
			"ratelimiter_chat":   chatLimiter,
			"ratelimiter_places": placesLimiter,
			"cache_chat":         chatCache,
			"cache_places":       placesCache,
		},
	})

	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log.With(logger.Component("server"))))
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Run(ctx, router))
	g.Go(chatLimiter.Run(ctx))
	g.Go(placesLimiter.Run(ctx))
	g.Go(chatCache.Run(ctx))
	g.Go(placesCache.Run(ctx))

	log.Info("cityscout started",
		slog.String("addr", cfg.Server.Addr),
		slog.String("chat_provider", provider.Name()),
	)

	return g.Wait()
}

func buildChatProvider(cfg chatConfig) (chat.Provider, error) {
	switch cfg.Provider {
	case "openai":
		var opts []chat.OpenAIOption
		if cfg.Model != "" {
			opts = append(opts, chat.WithOpenAIModel(cfg.Model))
		}
		return chat.NewOpenAI(opts...), nil
	case "google":
		var opts []chat.GoogleOption
		if cfg.Model != "" {
			opts = append(opts, chat.WithGoogleModel(cfg.Model))
		}
		return chat.NewGoogle(opts...), nil
	default:
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Provider)
	}
}
