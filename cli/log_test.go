package cli

import (
	"testing"

	"github.com/ardnew/objecttext/log"
)

func TestLogConfig_Scan(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		level  log.Level
		format log.Format
		pretty bool
		caller bool
	}{
		{
			name:   "none",
			args:   []string{"check", "a.rules"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
			pretty: true,
		},
		{
			name:   "separate values",
			args:   []string{"--log-level", "trace", "fmt", "--log-format", "json"},
			level:  log.LevelTrace,
			format: log.FormatJSON,
			pretty: true,
		},
		{
			name:   "assigned values",
			args:   []string{"--log-level=warn", "--log-format=text", "--log-caller"},
			level:  log.LevelWarn,
			format: log.FormatText,
			pretty: true,
			caller: true,
		},
		{
			name:   "negated",
			args:   []string{"--no-log-pretty", "--log-caller=false"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
		},
		{
			name:   "negated assigned",
			args:   []string{"--no-log-pretty=false"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
			pretty: true,
		},
		{
			name:   "missing value",
			args:   []string{"--log-level", "--log-caller"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
			pretty: true,
			caller: true,
		},
		{
			name:   "after terminator",
			args:   []string{"query", "--", "--log-level=error"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
			pretty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := log.Default()
			t.Cleanup(func() { log.SetDefault(original) })

			log.SetDefault(log.Make(nil))

			f := logConfig{Pretty: true}
			f.scan(tt.args)

			logger := log.Default()

			if logger.Level() != tt.level {
				t.Errorf("level = %v, want %v", logger.Level(), tt.level)
			}

			if logger.Format() != tt.format {
				t.Errorf("format = %v, want %v", logger.Format(), tt.format)
			}

			if f.Pretty != tt.pretty || f.Caller != tt.caller {
				t.Errorf("pretty=%v caller=%v, want %v %v", f.Pretty, f.Caller, tt.pretty, tt.caller)
			}
		})
	}
}
