package utils

import "testing"

func TestNewLoggerNamesService(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Encoding: "json", ServiceName: "agentmate"})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	if logger.Name() != "agentmate" {
		t.Fatalf("expected named logger, got %q", logger.Name())
	}
	if !logger.Core().Enabled(-1) {
		t.Fatalf("expected debug level to be enabled")
	}
}

func TestNewLoggerFallsBackOnBadSettings(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "loud", Encoding: "xml"})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	if logger.Core().Enabled(-1) {
		t.Fatalf("unknown level should fall back to info")
	}
	if logger.Name() != "" {
		t.Fatalf("expected unnamed logger, got %q", logger.Name())
	}
}
