package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	appName        = "mcpchat"
	settingsFile   = "settings.toml"
	userConfigFile = "config.toml"
)

// homeDir prefers $HOME so tests and sandboxes can redirect it.
func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return string(filepath.Separator)
}

// ConfigDir is ~/.config/mcpchat on every platform.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", appName)
}

func settingsPath() string {
	return filepath.Join(ConfigDir(), settingsFile)
}

func userConfigPath(dataDir string) string {
	return filepath.Join(dataDir, userConfigFile)
}

// ExpandPath resolves a leading ~ and $VARS, then cleans the result.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return ""
	case path == "~":
		return homeDir()
	case strings.HasPrefix(path, "~/"):
		path = filepath.Join(homeDir(), path[2:])
	}
	return filepath.Clean(os.ExpandEnv(path))
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ensurePrivateDir creates dir as 0700, or tightens an existing one to 0700.
func ensurePrivateDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return os.MkdirAll(dir, 0700)
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory", dir)
	case info.Mode().Perm() != 0700:
		return os.Chmod(dir, 0700)
	}
	return nil
}

// writePrivate writes data as a 0600 file inside a 0700 directory.
func writePrivate(path string, data []byte) error {
	if err := ensurePrivateDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to prepare %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0600)
}
