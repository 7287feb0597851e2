// Package httpserver runs the operator HTTP surface with configurable
// timeouts and context-driven graceful shutdown, and provides the liveness and
// readiness handler.
//
//	srv, err := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	g.Go(srv.Start(ctx, router))
package httpserver
