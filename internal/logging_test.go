package internal

import "testing"

func TestLoggerLevels(t *testing.T) {
	l := NewLogger("core")
	if l.LogLevel() != LogLevelDefault {
		t.Errorf("default level: got %v", l.LogLevel())
	}
	old := l.SetLogLevel(LevelInfo)
	if old != LogLevelDefault {
		t.Errorf("SetLogLevel old: got %v", old)
	}
	if l.LogLevel() != LevelInfo {
		t.Errorf("level after set: got %v", l.LogLevel())
	}
	defer func() {
		if recover() == nil {
			t.Error("out-of-range level should panic")
		}
	}()
	l.SetLogLevel(LevelMax + 1)
}

func TestLoggerPrefix(t *testing.T) {
	// An empty prefix must not leave a dangling separator.
	if got := NewLogger("").logger.Prefix(); got != "" {
		t.Errorf("empty prefix: got %q", got)
	}
	if got := NewLogger("bins").logger.Prefix(); got != "bins: " {
		t.Errorf("prefix: got %q", got)
	}
}
