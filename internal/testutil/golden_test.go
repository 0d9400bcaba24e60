package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSuite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "basic.yaml", `
scenarios:
  - name: add
    source: 1 + 2
    expect:
      exitCode: 0
      value: "3"
  - name: session
    cmd: repl
    lines: [let x = 1, x]
    expect:
      exitCode: 0
      values: ["nil", "1"]
  - name: check
    cmd: check
    source: x
    expect:
      exitCode: 2
      diagnostics:
        - code: E_UNBOUND
`)

	suite, err := LoadSuite(path)
	require.NoError(t, err)
	require.Len(t, suite.Scenarios, 3)
	assert.Equal(t, path, suite.Path)

	add := suite.Scenarios[0]
	assert.Equal(t, CmdRun, add.Command())
	require.NotNil(t, add.Expect.Value)
	assert.Equal(t, "3", *add.Expect.Value)

	assert.Equal(t, CmdRepl, suite.Scenarios[1].Command())
	assert.Equal(t, []string{"let x = 1", "x"}, suite.Scenarios[1].Lines)
	assert.Nil(t, suite.Scenarios[1].Expect.Value)

	check := suite.Scenarios[2]
	assert.Equal(t, 2, check.Expect.ExitCode)
	assert.Equal(t, "E_UNBOUND", check.Expect.Diagnostics[0]["code"])
}

func TestLoadSuiteRejects(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"unnamed":     "scenarios:\n  - source: 1\n",
		"unknown cmd": "scenarios:\n  - name: a\n    cmd: fly\n",
		"empty repl":  "scenarios:\n  - name: a\n    cmd: repl\n",
		"bad yaml":    "scenarios: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSuite(writeFile(t, dir, "bad.yaml", content))
			assert.Error(t, err)
		})
	}

	_, err := LoadSuite(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestListSuites(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "scenarios: []\n")
	writeFile(t, dir, "a.yml", "scenarios: []\n")
	writeFile(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	files, err := ListSuites(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, files)
	assert.Equal(t, "a", SuiteName(files[0]))
}
