// Package secrets resolves the bearer token used against the analysis API.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotConfigured is returned when no token is available. Callers treat it
// as "not authenticated" rather than a failure.
var ErrNotConfigured = errors.New("not configured")

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or env.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value.
	File string
}

// Load returns the trimmed secret. A missing file is not an error when an
// inline value exists; a missing file with no inline value reports
// ErrNotConfigured.
func Load(src Source) (string, error) {
	name := sourceName(src)

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		switch {
		case err == nil:
			secret := strings.TrimSpace(string(data))
			if secret == "" {
				return "", fmt.Errorf("%s file %q is empty", name, file)
			}
			return secret, nil
		case errors.Is(err, os.ErrNotExist):
		default:
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}

	return secret, nil
}

// Save writes the secret to src.File readable by the owner only, creating
// parent directories as needed.
func Save(src Source, secret string) error {
	name := sourceName(src)

	file := strings.TrimSpace(src.File)
	if file == "" {
		return fmt.Errorf("%s file is not configured", name)
	}

	secret = strings.TrimSpace(secret)
	if secret == "" {
		return fmt.Errorf("refusing to save an empty %s", name)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	if err := os.WriteFile(file, []byte(secret+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing %s to %q: %w", name, file, err)
	}

	return nil
}

func sourceName(src Source) string {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		return "secret"
	}
	return name
}
