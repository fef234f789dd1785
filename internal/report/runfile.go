// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/game-scout/pkg/types"
)

const runFileVersion = 1

// ErrRunFileVersion is returned for run files written by an incompatible version.
var ErrRunFileVersion = errors.New("unsupported run file version")

// RunFile is the on-disk representation of a completed run.
type RunFile struct {
	Version int               `yaml:"version"`
	SavedAt time.Time         `yaml:"saved_at"`
	Output  types.ScoutOutput `yaml:"output"`
}

// WriteRunFile saves out to a YAML file at path.
func WriteRunFile(path string, out types.ScoutOutput) error {
	rf := RunFile{Version: runFileVersion, SavedAt: time.Now().UTC(), Output: out}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRunFile loads a run saved by WriteRunFile. The pool's URL set, which is
// not serialized, is rebuilt from the categorized results.
func ReadRunFile(path string) (types.ScoutOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ScoutOutput{}, fmt.Errorf("reading run file: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return types.ScoutOutput{}, fmt.Errorf("parsing run file: %w", err)
	}
	if rf.Version != runFileVersion {
		return types.ScoutOutput{}, fmt.Errorf("%w: %d", ErrRunFileVersion, rf.Version)
	}

	out := rf.Output
	out.Pool.AllURLs = make(map[string]struct{})
	for _, results := range out.Pool.ByCategory {
		for _, r := range results {
			for _, u := range r.URLs() {
				out.Pool.AllURLs[u] = struct{}{}
			}
		}
	}
	if out.SourceURLs == nil {
		out.SourceURLs = []string{}
	}
	return out, nil
}
