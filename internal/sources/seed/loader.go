// Package seed loads statuses and services from a YAML file into the registry.
package seed

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Loader reads the seed file.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the seed file, expanding ${VAR} references from
// the environment.
func (l *Loader) Load() (Config, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	data = expandVariables(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return cfg, nil
}

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandVariables replaces ${VAR} with its environment value. Unset
// variables expand to the empty string.
func expandVariables(data []byte) []byte {
	return variablePattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := variablePattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
