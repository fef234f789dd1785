//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Scout builds the CLI and researches name for intent, saving the run under runs/.
func Scout(name, intent string) error {
	mg.Deps(Build, Init)
	out := filepath.Join("runs", slug(name)+".yaml")
	if err := sh.RunV(filepath.Join(binDir, binName), "scout", name, "--intent", intent, "--out", out); err != nil {
		return fmt.Errorf("scout: %w", err)
	}
	return nil
}

// Replay re-renders a saved run without querying providers.
func Replay(path string) error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "scout", "--from", path)
}

func slug(s string) string {
	b := make([]byte, 0, len(s))
	dash := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b = append(b, c)
			dash = false
		case c >= 'A' && c <= 'Z':
			b = append(b, c+'a'-'A')
			dash = false
		case !dash && len(b) > 0:
			b = append(b, '-')
			dash = true
		}
	}
	if n := len(b); n > 0 && b[n-1] == '-' {
		b = b[:n-1]
	}
	if len(b) == 0 {
		return "run"
	}
	return string(b)
}
