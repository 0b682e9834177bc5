package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	envConfigDir = "NETSCOPE_CONFIG_DIR"
	appDirName   = "netscope"
)

// Dir returns the configuration directory. NETSCOPE_CONFIG_DIR wins over the
// platform default.
func Dir() string {
	if dir := strings.TrimSpace(os.Getenv(envConfigDir)); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, appDirName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, "."+appDirName)
	}
	return "." + appDirName
}

func HistoryPath() string {
	return filepath.Join(Dir(), "history.json")
}

func HistoryDBPath() string {
	return filepath.Join(Dir(), "history.db")
}

func ThemeDir() string {
	return filepath.Join(Dir(), "themes")
}
