package logger

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdLogger_VerboseGate(t *testing.T) {
	var buf bytes.Buffer
	quiet := New(&buf, false)
	quiet.Info("hidden", nil)
	assert.Empty(t, buf.String())

	loud := New(&buf, true)
	loud.Warn("shown", map[string]interface{}{"k": "v"})
	loud.Error("failed", errors.New("boom"), nil)
	out := buf.String()
	assert.Contains(t, out, "[WARN] shown")
	assert.Contains(t, out, "[ERROR] failed boom")
}

func TestNewSession_WritesFile(t *testing.T) {
	dir := t.TempDir()
	session, err := NewSession(dir, false)
	require.NoError(t, err)

	session.Info("pipeline started", map[string]interface{}{"plugin": "f2"})
	require.NoError(t, session.Close())

	assert.True(t, strings.HasPrefix(session.Path, dir))
	assert.Contains(t, session.Path, "session-"+session.ID+".log")

	data, err := os.ReadFile(session.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pipeline started")
}
