// Package httpserver runs an http.Handler until its context is cancelled and
// then shuts it down gracefully within a deadline.
//
// Run binds the listener before serving, so Addr reports the real address
// even when the configured one uses port 0, and Ready is closed once requests
// can be accepted. Signal handling is left to the caller.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// HealthHandler serves a JSON liveness/readiness document built from named
// checks.
package httpserver
