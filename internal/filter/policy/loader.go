package policy

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadRegoFiles reads every policy module under dir, walking subdirectories.
// Modules are keyed by their slash-separated path relative to dir so two
// files with the same name in different folders do not collide. Rego unit
// tests (*_test.rego) are not policies and are skipped.
func LoadRegoFiles(dir string) (map[string]string, error) {
	modules := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isPolicyFile(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		modules[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load policies from %s: %w", dir, err)
	}
	return modules, nil
}

func isPolicyFile(name string) bool {
	return filepath.Ext(name) == ".rego" && !strings.HasSuffix(name, "_test.rego")
}

// moduleNames returns the module names in sorted order, so compilation and
// log output do not depend on map iteration.
func moduleNames(modules map[string]string) []string {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
