package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_LevelAndFormat(t *testing.T) {
	log, err := New("warn", "console")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = log.Sync() }()
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !log.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("error should be enabled at warn level")
	}
}

func TestNew_DefaultsToJSON(t *testing.T) {
	if _, err := New("debug", ""); err != nil {
		t.Fatalf("new: %v", err)
	}
}

func TestNew_RejectsBadInput(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatalf("expected format error")
	}
}
