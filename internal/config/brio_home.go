package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GetBrioHome returns the brio home directory.
// Priority order:
//  1. BRIO_HOME environment variable (if set)
//  2. Brio repository root (detected by finding go.mod)
//  3. Current working directory (fallback)
//
// The directory is created if it doesn't exist.
func GetBrioHome() (string, error) {
	if home := os.Getenv("BRIO_HOME"); home != "" {
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("config: create brio home directory: %w", err)
		}
		return home, nil
	}

	if repoRoot, err := findBrioRepoRoot(); err == nil && repoRoot != "" {
		home := filepath.Join(repoRoot, ".brio")
		if err := os.MkdirAll(home, 0755); err != nil {
			return "", fmt.Errorf("config: create brio home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("config: get working directory: %w", err)
	}
	home := filepath.Join(cwd, ".brio")
	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("config: create brio home directory: %w", err)
	}
	return home, nil
}

// findBrioRepoRoot walks up from the working directory looking for a
// .brio-root marker file or a go.mod declaring this module.
func findBrioRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	current := cwd
	for {
		if _, err := os.Stat(filepath.Join(current, ".brio-root")); err == nil {
			return current, nil
		}

		goModPath := filepath.Join(current, "go.mod")
		if data, err := os.ReadFile(goModPath); err == nil {
			if strings.Contains(string(data), "github.com/brioctl/brio") {
				return current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return "", fmt.Errorf("config: brio repository root not found (looking for .brio-root or go.mod with github.com/brioctl/brio)")
}

// DefaultSQLiteDSN returns $BRIO_HOME/brio.db, creating BRIO_HOME if needed.
func DefaultSQLiteDSN() (string, error) {
	home, err := GetBrioHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "brio.db"), nil
}

// ResolveConfigPath returns explicit unchanged if non-empty, otherwise
// $BRIO_HOME/config.yaml.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	home, err := GetBrioHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.yaml"), nil
}

// ResolveDSN returns cfg.SQLiteDSN unchanged if it is absolute, otherwise
// resolves it relative to BRIO_HOME.
func ResolveDSN(cfg *BrioConfig) (string, error) {
	if filepath.IsAbs(cfg.SQLiteDSN) {
		return cfg.SQLiteDSN, nil
	}
	home, err := GetBrioHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, cfg.SQLiteDSN), nil
}
