// Package logging provides structured logging and the diagnostic buffer for medentry.
//
// Console logging wraps a zap logger with package-level helpers. It is silent
// unless a level is given explicitly or through MEDENTRY_LOG_LEVEL.
//
// # Log Levels
//
//   - Debug: focus refusals, pending registrations, reconnect attempts
//   - Info: recovery strategies, collector connections
//   - Warn: placement fallbacks, failed strategies
//   - Error: caught focus errors
//
// # Diagnostic Buffer
//
// A Recorder keeps the last N entries in a ring buffer and forwards each one
// to its sinks (console, JSON lines file, remote websocket collector).
// Entries carry an extra critical level that zap lacks; mark a zap line with
// Critical() to produce one:
//
//	rec := logging.NewRecorder(500, fileSink)
//	logging.Attach(rec)
//	logging.Error("focus recovery failed", zap.Error(err), logging.Critical())
//
// # Thread Safety
//
// All logging functions and Recorder methods are safe for concurrent use.
package logging
