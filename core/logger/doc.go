// Package logger provides structured logging built on Go's standard slog
// package, plus attribute helpers for common logging scenarios.
//
// # Basic Usage
//
// Create loggers from configuration, typically loaded from the environment:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//
//	log := logger.New(cfg)
//	log.Info("server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// # Attribute Helpers
//
// Helpers return empty attributes for zero values, so calls like
// log.Info("done", logger.Error(err)) are safe without nil checks:
//
//	log.Error("request failed",
//		logger.Error(err),
//		logger.Method(r.Method),
//		logger.Path(r.URL.Path),
//		logger.StatusCode(502),
//		logger.Latency(time.Since(start)),
//	)
//
// # Testing with Custom Output
//
// Capture logs during testing by directing output to a buffer:
//
//	var buf bytes.Buffer
//	log := logger.New(logger.Config{Format: "json"}, logger.WithOutput(&buf))
package logger
