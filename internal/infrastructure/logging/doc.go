// Package logging provides structured logging for hubibot.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and the same level names.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("hubitat").Info("inventory refreshed", "devices", n)
//
// Never log hub or chat tokens. Chat messages are logged by user id and
// command name only.
package logging
