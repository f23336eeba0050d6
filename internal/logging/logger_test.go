package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", zap.String("path", "a.txt"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "a.txt")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("chatty", nil)
	require.Error(t, err)
}

func TestSink_LogsAndCounts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := NewSink(zap.New(core).Sugar())

	sink.Log("a.txt: permission denied")
	sink.Log("b.txt: input/output error")

	assert.Equal(t, int64(2), sink.Count())
	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "recoverable error", entry.Message)
	assert.Equal(t, "a.txt: permission denied", entry.ContextMap()["error"])
}

func TestSink_NilLogger(t *testing.T) {
	sink := NewSink(nil)
	sink.Log("ignored")
	assert.Equal(t, int64(1), sink.Count())
}
