package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mitchellh/go-homedir"
)

type RuleFileNotFoundError struct {
	Name     string
	Searched []string
}

func (e *RuleFileNotFoundError) Error() string {
	return fmt.Sprintf("rule file %q not found (searched %s)", e.Name, strings.Join(e.Searched, ", "))
}

// DefaultSearchPaths is where grc installs and users keep conf files, in
// lookup order.
func DefaultSearchPaths() []string {
	paths := []string{
		filepath.Join(xdg.ConfigHome, "grc"),
		filepath.Join(xdg.DataHome, "grc"),
	}
	if home, err := homedir.Dir(); err == nil {
		paths = append(paths, filepath.Join(home, ".grc"))
	}
	return append(paths, "/usr/local/share/grc", "/usr/share/grc")
}

// FindRuleFile resolves name to a readable rule file. A name that is itself
// an existing path wins; otherwise each search path is tried in order.
func FindRuleFile(name string, searchPaths []string) (string, error) {
	expanded, err := homedir.Expand(name)
	if err != nil {
		return "", fmt.Errorf("expanding %q: %v", name, err)
	}
	if isRegularFile(expanded) {
		return expanded, nil
	}
	if strings.ContainsRune(name, os.PathSeparator) {
		return "", &RuleFileNotFoundError{Name: name, Searched: []string{expanded}}
	}

	searched := make([]string, 0, len(searchPaths))
	for _, dir := range searchPaths {
		dir, err := homedir.Expand(dir)
		if err != nil {
			continue
		}
		candidate := filepath.Join(dir, name)
		searched = append(searched, candidate)
		if isRegularFile(candidate) {
			return candidate, nil
		}
	}
	return "", &RuleFileNotFoundError{Name: name, Searched: searched}
}

func isRegularFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
