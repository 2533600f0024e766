// Package app is the composition root for minimetars.
//
// Run wires everything together in this order:
//
//  1. config.Load reads ~/.config/minimetars/config.toml (defaults when absent)
//  2. logging.New opens the JSON log file; the terminal belongs to the UI
//  3. backend.Local is built over the AWC and VATSIM clients and the
//     profile and settings stores, and warms both caches in the background
//  4. state.NewStore is created with a factory that builds station units
//     using the configured poll schedules
//  5. the -stations flag, or else the saved profile, is mounted
//  6. the optional metrics/debug server starts when metrics_bind is set
//  7. ui.Run blocks until the user quits or ctx is cancelled
//
// Stopping the store on exit cancels every poller and waits for it.
//
//	Run()
//	 ├─> config.Load()
//	 ├─> logging.NewOrNop()
//	 ├─> backend.Local{AWC, Vatsim, Profiles}
//	 │     └─> Warm()            (goroutine)
//	 ├─> state.NewStore(unitFactory)
//	 │     └─> station.Unit.Start() per station
//	 │           ├─> weather poller  120s ±10s
//	 │           └─> atis poller      30s ±5s
//	 ├─> metrics.Serve()          (optional goroutine)
//	 └─> ui.Run()                 (blocks)
package app
