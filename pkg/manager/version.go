package manager

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// versionFileName is the small side-file caching the game version detected
// from console output, so it survives across runs and daemon restarts.
const versionFileName = "server_config.json"

func loadVersion(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, versionFileName))
	if err != nil {
		return ""
	}

	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ""
	}

	if v, ok := cfg["version"].(string); ok {
		return v
	}
	return ""
}

func saveVersion(dir, version string) error {
	path := filepath.Join(dir, versionFileName)

	cfg := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}
	cfg["version"] = version

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
