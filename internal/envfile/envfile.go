// Package envfile materializes and updates dotenv-style configuration files.
package envfile

import (
	"fmt"
	"os"
	"strings"
)

// Materialize ensures the env file at path exists and carries key=value.
// A missing file is created from the template at templatePath; an unreadable
// template is an error. The key is then upserted via Upsert. Running
// Materialize twice with the same inputs leaves the file unchanged after the
// first run.
func Materialize(path, templatePath, key, value string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		tpl, readErr := os.ReadFile(templatePath)
		if readErr != nil {
			return fmt.Errorf("reading env template %s: %w", templatePath, readErr)
		}
		if writeErr := os.WriteFile(path, tpl, 0o644); writeErr != nil {
			return fmt.Errorf("creating env file %s: %w", path, writeErr)
		}
	} else if err != nil {
		return fmt.Errorf("checking env file %s: %w", path, err)
	}

	return Upsert(path, key, value)
}

// Upsert rewrites the file at path so that it contains a key=value line.
// The first line starting with "key=" is replaced in place; all other lines
// keep their content and order. When no such line exists, key=value is
// appended. The operation is idempotent.
func Upsert(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading env file %s: %w", path, err)
	}

	hadTrailingNewline := strings.HasSuffix(string(data), "\n")
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	prefix := key + "="
	entry := prefix + value

	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(line, prefix) {
			lines[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		if len(lines) == 1 && lines[0] == "" {
			lines[0] = entry
		} else {
			lines = append(lines, entry)
		}
		hadTrailingNewline = true
	}

	out := strings.Join(lines, "\n")
	if hadTrailingNewline {
		out += "\n"
	}

	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing env file %s: %w", path, err)
	}
	return nil
}
