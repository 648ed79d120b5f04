package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "svc.log")

	log, err := New(Options{Service: "admin-service", Level: "debug", Mode: "production", File: path})
	req.NoError(err)
	log.With("request_id", "req-1").Info("hello", "n", 1)
	log.Sync()

	data, err := os.ReadFile(path)
	req.NoError(err)
	req.Contains(string(data), `"msg":"hello"`)
	req.Contains(string(data), `"service":"admin-service"`)
	req.Contains(string(data), `"request_id":"req-1"`)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("ignored", "k", "v")
	log.With("a", 1).Debug("ignored")
}
