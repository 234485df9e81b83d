package tableproc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultInputName = "uploaded.png"

// WithWorkDir writes data into a fresh temporary directory under a sanitized
// form of filename and calls fn with the file path. The directory is removed
// when fn returns, whatever the outcome.
func WithWorkDir(filename string, data []byte, fn func(path string) error) error {
	dir, err := os.MkdirTemp("", "table-cropper-*")
	if err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, SafeInputName(filename))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write input image: %w", err)
	}
	return fn(path)
}

// SafeInputName strips directories from filename so it can't escape the work dir.
func SafeInputName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || strings.TrimSpace(name) == "" {
		return defaultInputName
	}
	return name
}
