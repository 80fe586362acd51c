package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DirName is the per-workspace state directory.
const DirName = ".maestro"

// FindWorkspaceRoot walks up from the working directory looking for a
// .maestro directory, then a go.mod. It falls back to the working directory.
func FindWorkspaceRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	originalDir := dir
	for {
		if info, err := os.Stat(filepath.Join(dir, DirName)); err == nil && info.IsDir() {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return originalDir, nil
}

// Path returns the default config file location inside workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, DirName, "config.yaml")
}

// LogsDir returns where log files are written.
func LogsDir(workspace string) string {
	return filepath.Join(workspace, DirName, "logs")
}

// Resolve makes p absolute against workspace. Empty and absolute paths are
// returned unchanged.
func Resolve(workspace, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workspace, p)
}

// LoadDotEnv loads <workspace>/.env into the process environment when it
// exists. Variables already set are not overwritten.
func LoadDotEnv(workspace string) error {
	path := filepath.Join(workspace, ".env")
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("env file path '%s' is not a regular file", path)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
