package prefabs

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// LoadScript reads a targeting script, preferring prefabs/scripts on disk
// over the embedded copy.
func LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if data, err := os.ReadFile(diskPrefabPath(clean)); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

//go:embed scenarios/*.yaml
var ScenariosFS embed.FS

// Load reads a scenario file, preferring prefabs/ on disk over the embedded
// copy. Absolute and explicitly relative paths are read from disk only.
func Load(name string) ([]byte, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") {
		return os.ReadFile(name)
	}
	clean := cleanScenarioPath(name)
	if data, err := os.ReadFile(diskPrefabPath(clean)); err == nil {
		return data, nil
	}
	return ScenariosFS.ReadFile(clean)
}

// ModTime reports when the on-disk override of name last changed.
func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(diskPrefabPath(cleanScenarioPath(name)))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Scenarios lists the embedded scenario names.
func Scenarios() ([]string, error) {
	entries, err := ScenariosFS.ReadDir("scenarios")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	return names, nil
}

func cleanScenarioPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "scenarios/"); ok {
		s = after
	}
	if !isSpecFile(s) {
		s += ".yaml"
	}
	return fmt.Sprintf("scenarios/%s", s)
}

func cleanScriptPath(path string) string {
	if path == "" {
		return ""
	}

	s := filepath.ToSlash(path)

	if after, ok := strings.CutPrefix(s, "prefabs/scripts/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, "prefabs/"); ok {
		s = after
	}

	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}

	return fmt.Sprintf("scripts/%s", s)
}

func diskPrefabPath(clean string) string {
	return filepath.Join("prefabs", filepath.FromSlash(clean))
}
