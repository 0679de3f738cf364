// Package logging provides structured logging for the Electrolux bridge.
//
// It wraps log/slog with the bridge's default attributes (service, version),
// level parsing and credential redaction. Components receive a child logger
// from Component and accept it through their SetLogger or Options.Logger
// fields.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Component("cloud").Info("appliances listed", "count", 2)
//
// # Security
//
// Attributes named token, access_token, api_key, authorization, password or
// secret are written as [REDACTED]. Use Redact to log a recognisable prefix:
//
//	logger.Info("cloud client ready", "api_key_prefix", logging.Redact(key))
package logging
