// Package server exposes a running connectivity monitor to local observers.
//
// Endpoints:
//
//	GET /api/state   latest heartbeat snapshot as JSON
//	GET /api/stats   tick and failure counters
//	GET /ws/state    WebSocket stream of snapshots
//	GET /metrics     Prometheus metrics (see monitor.Collector)
//
// The server never contacts the device itself; it only reads the monitor.
// Snapshots can additionally be recorded to a JSON Lines file by setting
// Config.RecordDir.
//
// # Usage Example
//
//	m := monitor.New(client, monitor.Options{Device: baseURL})
//	h := m.Start(ctx)
//	defer h.Stop()
//
//	srv := server.New(&server.Config{Port: 9108}, m)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Cancelling the context passed to Start stops the HTTP server, closes every
// WebSocket client and waits for their handlers to return.
package server
