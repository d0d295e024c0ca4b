package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Level(t *testing.T) {
	l, err := New("dev", "warn")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("warn should be enabled")
	}
}

func TestNew_Defaults(t *testing.T) {
	dev, err := New("dev", "")
	if err != nil {
		t.Fatalf("dev: %v", err)
	}
	if !dev.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("dev logger should log debug")
	}

	prod, err := New("prod", "")
	if err != nil {
		t.Fatalf("prod: %v", err)
	}
	if prod.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("prod logger should not log debug")
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New("dev", "loud"); err == nil {
		t.Fatalf("expected error")
	}
}
