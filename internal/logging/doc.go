// Package logging provides structured logging for ubnt-discover.
//
// This package wraps a zap logger. The CLI initializes it once; the discovery
// sessions take a *zap.Logger in their configuration and default to
// GetLogger() when none is given.
//
// # Log Levels
//
//   - Debug: Non-response packets, duplicate announcements, raw datagram dumps
//   - Info: Session start and stop, mDNS advertisement
//   - Warn: Malformed datagrams, failed multicast joins
//   - Error: Socket and startup failures
//
// # Configuration
//
// The level comes from the --log-level flag, then UBNT_DISCOVER_LOG_LEVEL,
// then DefaultLevel ("warn"). -v forces "debug".
//
//	if err := logging.Initialize("debug"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Output Format
//
// Logs are written to stderr in console format so that discovery results on
// stdout can be piped:
//
//	2026-01-12T10:30:45.123+0100  WARN  malformed datagram  {"from": "192.168.1.20:10001", "error": "protocol: length mismatch: 12 bytes expected vs 9 received"}
//
// # Raw Datagrams
//
// RawBytes and LogRawBytes attach hex and ASCII dumps (first 256 bytes) of a
// datagram:
//
//	logging.LogRawBytes(log, "malformed datagram", buf[:n])
package logging
