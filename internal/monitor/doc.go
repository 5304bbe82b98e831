// Package monitor watches Chalkydri device reachability with a fixed-interval heartbeat.
//
// A Monitor polls GET /api/info every 500ms by default. Start runs the loop in
// the background and returns a Handle whose Stop is the only way to end it:
//
//	mon := monitor.New(client, monitor.Options{Device: client.BaseURL})
//	h := mon.Start(ctx)
//	defer h.Stop()
//
//	updates, unsubscribe := mon.Subscribe()
//	defer unsubscribe()
//	for state := range updates {
//	    fmt.Println(state.Connected)
//	}
//
// Tests drive Tick directly instead of waiting on the wall clock.
package monitor
