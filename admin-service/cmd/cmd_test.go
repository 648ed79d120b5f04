package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/startupstarter/admin/shared/models"
	"github.com/stretchr/testify/require"
)

func TestReadWorkflowFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "workflows.yaml")
	req.NoError(os.WriteFile(path, []byte(`
workflows:
  - name: Editorial
    description: Two-step review
    default: true
    steps:
      - name: Edit
        role: Editor
      - name: Legal
        role: Legal
`), 0o600))

	defs, err := readWorkflowFile(path)
	req.NoError(err)
	req.Len(defs, 1)
	req.Equal("Editorial", defs[0].Name)
	req.True(defs[0].IsDefault)
	req.Len(defs[0].Steps, 2)
	req.Equal("Legal", defs[0].Steps[1].Role)
}

func TestReadWorkflowFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workflows: []\n"), 0o600))

	_, err := readWorkflowFile(path)
	require.Error(t, err)
}

func TestRenderCounts_Sorted(t *testing.T) {
	var buf bytes.Buffer
	renderCounts(&buf, map[string]int64{"sessions": 4, "audit_entries": 10})

	out := buf.String()
	require.Less(t, strings.Index(out, "audit_entries"), strings.Index(out, "sessions"))
}

func TestRenderStatus(t *testing.T) {
	var buf bytes.Buffer
	renderStatus(&buf, &models.SystemStatus{Version: "1.2.3", UptimeSeconds: 90, Database: "up", Cache: "down"})

	out := buf.String()
	require.Contains(t, out, "1.2.3")
	require.Contains(t, out, "1m30s")
	require.Contains(t, out, "down")
}
