package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected logrus.Level
		wantErr  bool
	}{
		{name: "Default", level: "", expected: logrus.InfoLevel},
		{name: "Debug", level: "debug", expected: logrus.DebugLevel},
		{name: "Warn", level: "warn", expected: logrus.WarnLevel},
		{name: "Invalid", level: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(Options{Level: tt.level})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, logger.GetLevel())
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	logger, err := New(Options{File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.WithField("method", "/appraisal.v1.AppraisalService/GetAnalysis").Info("rpc completed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "rpc completed", entry["msg"])
	assert.Equal(t, "/appraisal.v1.AppraisalService/GetAnalysis", entry["method"])
}
