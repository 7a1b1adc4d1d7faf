// Package entry implements the entry-point logic for an HTTP server process: a
// structured JSON logger, shutdown on signal, per-request logging and request IDs, and
// graceful server shutdown.
//
// Example usage:
//
//	func main() {
//		app := entry.NewApplication("hmacauth", slog.LevelInfo)
//		defer app.Stop()
//
//		h := &somethingThatImplementsHttpHandler{}
//		server := entry.NewServer(app.Log(), h, "", 5000)
//		if err := entry.RunServer(app.Context(), app.Log(), server); err != nil {
//			app.Fail("Server failed", err)
//		}
//	}
package entry
