package logger_test

import (
	"testing"

	"superforecaster/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := map[string]struct {
		level   string
		json    bool
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		"Debug":        {level: "debug", enabled: zapcore.DebugLevel, muted: zapcore.DebugLevel - 1},
		"Warn_JSON":    {level: "WARN", json: true, enabled: zapcore.WarnLevel, muted: zapcore.InfoLevel},
		"Error":        {level: "error", enabled: zapcore.ErrorLevel, muted: zapcore.WarnLevel},
		"Unknown_Info": {level: "chatty", enabled: zapcore.InfoLevel, muted: zapcore.DebugLevel},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			l, err := logger.New(tt.level, tt.json)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.enabled))
			assert.False(t, l.Core().Enabled(tt.muted))
		})
	}
}
