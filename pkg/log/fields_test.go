package log

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	err := errors.New("broker unreachable")

	tests := []struct {
		name  string
		input []any
	}{
		{"empty input", []any{}},
		{"string pairs", []any{"missionID", "m1", "step", 3, "terminal", false}},
		{"time value", []any{"finishedAt", now}},
		{"duration value", []any{"ackTimeout", 5 * time.Second}},
		{"float value", []any{"throttle", 0.75}},
		{"bytes value", []any{"payload", []byte(`{"command":"STAGE"}`)}},
		{"error only", []any{err}},
		{"two bare errors", []any{err, errors.New("again")}},
		{"mixed with zap field", []any{"status", "FAILED", zap.Int("seq", 2), "detail", "timeout"}},
		{"odd number of args", []any{"missionID", "m1", "dangling"}},
		{"non-string key", []any{42, "value"}},
		{"nil value", []any{"err", nil}},
		{"map value", []any{"parameters", map[string]string{"value": "1.0"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)

			if fields == nil && len(tt.input) > 0 {
				t.Fatalf("nil fields for non-empty input: %v", tt.input)
			}
			for _, f := range fields {
				if f.Key == "" {
					t.Errorf("field has empty key: %+v", f)
				}
			}
		})
	}
}

func TestLoggerNopSafety(t *testing.T) {
	l := NewNopLogger()
	l.Info("no-op", "k", "v")
	l.Error(errors.New("x"), "still no-op")
	if l.WithName("sub") == nil {
		t.Fatal("WithName returned nil")
	}
}
