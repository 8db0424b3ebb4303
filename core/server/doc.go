// Package server wraps http.Server with graceful shutdown, environment-based
// configuration, and optional TLS from certificate files.
//
// # Basic Usage
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	// Blocks until ctx is canceled or the listener fails.
//	if err := srv.Start(ctx, handler); err != nil {
//		return err
//	}
//
// # Coordinated Lifecycle
//
// Run returns a closure compatible with errgroup.Group, shutting the server
// down gracefully when the group's context is canceled:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, handler))
//	return g.Wait()
package server
