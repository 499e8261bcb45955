// Package logging provides structured logging for fluxled.
//
// The package wraps a process-wide zap logger. Logging is silent unless
// FLUXLED_LOG_LEVEL (or an explicit level) selects one of debug, info, warn
// or error, so library callers see no output by default.
//
// # Log Levels
//
//   - Debug: raw frames in both directions, discovery replies
//   - Info: connections, retries that eventually succeeded
//   - Warn: unknown models, dropped datagrams, failed attempts
//   - Error: devices declared unreachable
//
// # Structured Logging
//
//	logging.Info("Connected",
//	    zap.String("addr", "192.168.1.40:5577"),
//	    zap.Stringer("generation", protocol.V2),
//	)
//
// Components that accept a *zap.Logger default to GetLogger().
package logging
