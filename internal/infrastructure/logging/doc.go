// Package logging provides structured logging for SmartConnect Core.
//
// It wraps log/slog so that every component logs with the same handler,
// level and default fields (service, version).
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("sensor state changed", "sensor_id", id, "state", state)
//
// Never log bearer tokens or broker credentials.
package logging
