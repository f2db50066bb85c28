package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// GetRiptideDir returns the per-OS riptide config directory.
func GetRiptideDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, "riptide")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "riptide")
	default:
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, _ := os.UserHomeDir()
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "riptide")
	}
}

// GetConfigPath returns the default config file location.
func GetConfigPath() string {
	return filepath.Join(GetRiptideDir(), "config.yaml")
}

// EnsureDirs creates the riptide directory tree.
func EnsureDirs() error {
	return os.MkdirAll(GetRiptideDir(), 0o755)
}
