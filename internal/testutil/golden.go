// Package testutil provides shared test helpers for Smoke tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ScenariosDir is the relative path from the module root to the shared
// scenarios.
const ScenariosDir = "testdata/scenarios"

// Scenario commands.
const (
	CmdRun   = "run"
	CmdCheck = "check"
	CmdRepl  = "repl"
)

// Suite is one scenario file.
type Suite struct {
	Path      string     `yaml:"-"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenario is a single program and the outcome it must produce.
type Scenario struct {
	Name string `yaml:"name"`
	// Cmd is one of run, check or repl. An empty Cmd means run.
	Cmd    string `yaml:"cmd,omitempty"`
	Source string `yaml:"source,omitempty"`
	// Lines are evaluated one after another in the same environment when
	// Cmd is repl.
	Lines    []string       `yaml:"lines,omitempty"`
	MaxDepth int            `yaml:"maxDepth,omitempty"`
	Tags     []string       `yaml:"tags,omitempty"`
	Expect   ExpectedResult `yaml:"expect"`
}

// ExpectedResult describes the expected outcome of a scenario.
type ExpectedResult struct {
	ExitCode int `yaml:"exitCode"`
	// Value is the inspected result of a run.
	Value *string `yaml:"value,omitempty"`
	// Values are the inspected results of each repl line, "" for a line
	// that failed.
	Values []string `yaml:"values,omitempty"`
	// JSON is the expected ValueToJSON output.
	JSON string `yaml:"json,omitempty"`
	// Diagnostics must each match, as a subset, the diagnostic at the same
	// index.
	Diagnostics     []map[string]interface{} `yaml:"diagnostics,omitempty"`
	MessageContains string                   `yaml:"messageContains,omitempty"`
}

// Command returns the scenario command with the default applied.
func (s Scenario) Command() string {
	if s.Cmd == "" {
		return CmdRun
	}
	return s.Cmd
}

// LoadSuite loads the scenario file at path.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenarios %s", path)
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "loading scenarios %s", path)
	}
	s.Path = path
	for i, sc := range s.Scenarios {
		if sc.Name == "" {
			return nil, errors.Errorf("%s: scenario %d has no name", path, i)
		}
		switch sc.Command() {
		case CmdRun, CmdCheck:
		case CmdRepl:
			if len(sc.Lines) == 0 {
				return nil, errors.Errorf("%s: repl scenario %s has no lines", path, sc.Name)
			}
		default:
			return nil, errors.Errorf("%s: scenario %s has unknown cmd %q", path, sc.Name, sc.Cmd)
		}
	}
	return &s, nil
}

// ListSuites returns the scenario files under root, sorted by name.
func ListSuites(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(root, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// SuiteName is the file name of path without its extension.
func SuiteName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
