package client

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keepLogger(t *testing.T) {
	t.Helper()
	prev := Log
	t.Cleanup(func() { Log = prev })
}

func TestInitLogger_FileAndConsole(t *testing.T) {
	keepLogger(t)
	path := filepath.Join(t.TempDir(), "client.log")
	var console bytes.Buffer

	require.NoError(t, InitLogger(LoggerOptions{File: path, Level: "info", Console: &console}))
	Log.Infof("started game %s", "g1")
	Log.Debugf("hidden below level")
	SyncLogger()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "started game g1")
	assert.NotContains(t, string(data), "hidden below level")
	assert.Contains(t, console.String(), "started game g1")
	assert.Contains(t, console.String(), "INFO")
}

func TestInitLogger_ConsoleOnly(t *testing.T) {
	keepLogger(t)
	var console bytes.Buffer

	require.NoError(t, InitLogger(LoggerOptions{Level: "debug", Console: &console}))
	Log.Debugf("tick %d", 3)
	assert.Contains(t, console.String(), "tick 3")
}

func TestInitLogger_Errors(t *testing.T) {
	keepLogger(t)
	assert.Error(t, InitLogger(LoggerOptions{File: "x.log", Level: "loud"}))
	assert.Error(t, InitLogger(LoggerOptions{Level: "info"}))
}
