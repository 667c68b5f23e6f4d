package logger

import "testing"

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
	}{
		{name: "development mode", debug: true},
		{name: "production mode", debug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewLogger(tt.debug)
			if err != nil {
				t.Fatalf("NewLogger() error = %v, want nil", err)
			}
			if log == nil {
				t.Fatal("NewLogger() returned nil logger")
			}

			log.Info("test message", String("key", "value"))
			_ = log.Sync()
		})
	}
}

func TestNewNopLogger(t *testing.T) {
	log := NewNopLogger()

	log.Debug("debug")
	log.Info("info")
	log.Warn("warn")
	log.Error("error", Error(nil))

	withLogger := log.With(String("key", "value"), Int("n", 1))
	if withLogger == nil {
		t.Fatal("With() returned nil")
	}
	_ = log.Sync()
}
