// Package telemetry provides best-effort product analytics hooks. Tracking a
// signal must never fail or slow down the learning flow, so every Tracker
// implementation swallows its own errors.
package telemetry

import (
	"log/slog"
)

// Tracker records named product signals (banner shown, tier crossed,
// achievement unlocked) for later analysis.
type Tracker interface {
	Track(name string, payload map[string]any)
}

// ══════════════════════════════════════════════════════════════════════════════
// IMPLEMENTATIONS
// ══════════════════════════════════════════════════════════════════════════════

// SlogTracker writes signals to structured logs, one line per signal.
type SlogTracker struct {
	logger *slog.Logger
}

// NewSlogTracker creates a tracker backed by the given logger.
func NewSlogTracker(logger *slog.Logger) *SlogTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTracker{logger: logger}
}

// Track implements Tracker.
func (t *SlogTracker) Track(name string, payload map[string]any) {
	attrs := make([]any, 0, len(payload)*2+2)
	attrs = append(attrs, "signal", name)
	for k, v := range payload {
		attrs = append(attrs, k, v)
	}
	t.logger.Info("telemetry", attrs...)
}

// NopTracker discards every signal. Used in tests and when analytics are
// disabled by configuration.
type NopTracker struct{}

// Track implements Tracker.
func (NopTracker) Track(name string, payload map[string]any) {}
