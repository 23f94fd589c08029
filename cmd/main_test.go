package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitline/internal/queue"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	t.Setenv("ENV_CHEK", "1")
	path := filepath.Join(t.TempDir(), "waitline.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const memoryConfig = `
store_backend = "memory"

[log]
outputs = ["stderr"]
`

func TestMigrateAndAuditOnMemoryStore(t *testing.T) {
	path := writeConfig(t, memoryConfig)

	out, err := run(t, "--config", path, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "memory store migrated")

	out, err = run(t, "--config", path, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "all queues passed")
}

func TestAnalyticsOutput(t *testing.T) {
	path := writeConfig(t, memoryConfig)

	out, err := run(t, "--config", path, "analytics", "biz-1")
	require.NoError(t, err)
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "Average users per queue: 0.00")

	out, err = run(t, "--config", path, "analytics", "biz-1", "--json")
	require.NoError(t, err)
	var s queue.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "biz-1", s.BusinessID)
	assert.Empty(t, s.Queues)
}

func TestTokenCommand(t *testing.T) {
	path := writeConfig(t, memoryConfig+"\n[auth]\njwt_secret = \"s3cret\"\n")

	out, err := run(t, "--config", path, "token", "u1", "--role", "admin")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3)

	_, err = run(t, "--config", path, "token", "u1", "--role", "owner")
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"Queue", "Total"}, [][]string{{"Desk", "3"}}, []columnAlignment{alignLeft, alignRight}, false)
	assert.Contains(t, got, "QUEUE")
	assert.Contains(t, got, "Desk")
	assert.Empty(t, renderTable(nil, nil, nil, false))
}
