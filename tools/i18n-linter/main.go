// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the message catalogs against the source tree. It scans
// the Go code for i18n.T and i18n.Error calls and reports message IDs that
// are missing from a locale or defined but never used.
//
// Usage (from the repository root):
//
//	go run ./tools/i18n-linter
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "en.yaml"
	projectRoot   = "."
)

// callRe matches the message ID of i18n.T("...") and i18n.Error("...").
var callRe = regexp.MustCompile(`i18n\.(?:T|Error)\(\s*"([^"]+)"`)

// result is the outcome of one lint run.
type result struct {
	undefined map[string][]string // used in code, missing from the primary locale; ID to files
	orphaned  []string            // defined in the primary locale, never used
	missing   map[string][]string // locale file to IDs missing there
}

func (r result) failed() bool {
	return len(r.undefined) > 0 || len(r.missing) > 0
}

func main() {
	r, err := lint(projectRoot, localesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(2)
	}
	report(r)
	if r.failed() {
		os.Exit(1)
	}
}

func lint(root, locales string) (result, error) {
	used, err := findUsedKeys(root)
	if err != nil {
		return result{}, fmt.Errorf("scan sources: %w", err)
	}
	primary, err := loadKeysFromLocale(filepath.Join(locales, primaryLocale))
	if err != nil {
		return result{}, fmt.Errorf("load %s: %w", primaryLocale, err)
	}

	r := result{undefined: map[string][]string{}, missing: map[string][]string{}}
	for id, files := range used {
		if _, ok := primary[id]; !ok {
			r.undefined[id] = files
		}
	}
	for id := range primary {
		if _, ok := used[id]; !ok {
			r.orphaned = append(r.orphaned, id)
		}
	}
	sort.Strings(r.orphaned)

	files, err := filepath.Glob(filepath.Join(locales, "*.yaml"))
	if err != nil {
		return result{}, err
	}
	for _, file := range files {
		if filepath.Base(file) == primaryLocale {
			continue
		}
		keys, err := loadKeysFromLocale(file)
		if err != nil {
			return result{}, fmt.Errorf("load %s: %w", file, err)
		}
		for id := range primary {
			if _, ok := keys[id]; !ok {
				r.missing[filepath.Base(file)] = append(r.missing[filepath.Base(file)], id)
			}
		}
		sort.Strings(r.missing[filepath.Base(file)])
	}
	return r, nil
}

func report(r result) {
	ids := make([]string, 0, len(r.undefined))
	for id := range r.undefined {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("undefined: %s (used in %s)\n", id, strings.Join(r.undefined[id], ", "))
	}

	locales := make([]string, 0, len(r.missing))
	for l := range r.missing {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	for _, l := range locales {
		for _, id := range r.missing[l] {
			fmt.Printf("missing in %s: %s\n", l, id)
		}
	}
	for _, id := range r.orphaned {
		fmt.Printf("orphaned: %s\n", id)
	}
	if !r.failed() && len(r.orphaned) == 0 {
		fmt.Println("all message catalogs are consistent")
	}
}

// findUsedKeys maps every message ID used in non-test Go files under root
// to the files using it. The tools directory is skipped.
func findUsedKeys(root string) (map[string][]string, error) {
	keys := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name == "tools" || (strings.HasPrefix(name, "_") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range callRe.FindAllStringSubmatch(string(content), -1) {
			if files := keys[m[1]]; len(files) == 0 || files[len(files)-1] != path {
				keys[m[1]] = append(files, path)
			}
		}
		return nil
	})
	return keys, err
}

// loadKeysFromLocale reads a YAML catalog and returns its message IDs.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

// flattenYAML converts nested maps into dot-separated message IDs.
func flattenYAML(prefix string, node interface{}, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]interface{}:
		for k, val := range v {
			next := k
			if prefix != "" {
				next = prefix + "." + k
			}
			flattenYAML(next, val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}
