package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/magiconair/properties"
)

// Dashboard property keys.
const (
	PropGitHubUsername = "GITHUB_USERNAME"
	PropMonthlyLimit   = "COPILOT_PRO_MONTHLY_LIMIT"
)

// LoadProperties reads a key=value properties file into a flat map.
// A missing file yields an empty map.
func LoadProperties(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}

	loader := &properties.Loader{
		Encoding:         properties.UTF8,
		DisableExpansion: true,
	}
	p, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load properties %s: %w", path, err)
	}

	out := make(map[string]string, p.Len())
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}
