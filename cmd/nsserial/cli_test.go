package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trivialSystem = `initial_global: G0
requests:
  - [Req1, L0]
responses:
  - [L0, RespA]
transitions: []
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func writeSystem(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trivial.yaml")
	require.NoError(t, os.WriteFile(path, []byte(trivialSystem), 0o644))
	return path
}

func TestAutomatonCommand(t *testing.T) {
	out := execute(t, "automaton", writeSystem(t))
	assert.Contains(t, out, "Serialized automaton:")
	assert.Contains(t, out, "Req1/RespA")
}

func TestDotCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trivial.dot")
	execute(t, "dot", writeSystem(t), "-o", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph NetworkSystem")
}

func TestCheckVerifyHistory(t *testing.T) {
	system := writeSystem(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")
	work := filepath.Join(dir, "work")

	out := execute(t, "check", system, "-w", work, "--archive", db)
	assert.Contains(t, out, "Verdict: serializable")
	assert.Contains(t, out, "Run: ")

	out = execute(t, "verify", system, filepath.Join(work, "certificate.json"))
	assert.Contains(t, out, "Verdict: serializable")

	out = execute(t, "history", db, "--system", "trivial.yaml")
	assert.Contains(t, out, "trivial.yaml")
	assert.Contains(t, out, "serializable")
}

func TestCheckMissingSystem(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"check", filepath.Join(t.TempDir(), "absent.json")})
	assert.Error(t, rootCmd.Execute())
}
