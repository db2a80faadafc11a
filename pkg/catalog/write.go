package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/pretty"
)

// prettyOptions keeps every array element on its own line with a two space
// indent. A negative width disables pretty's single line arrays.
var prettyOptions = &pretty.Options{
	Width:  -1,
	Prefix: "",
	Indent: "  ",
}

// Encode renders the catalog as indented JSON with a trailing newline.
func Encode(c *Catalog) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}

	return pretty.PrettyOptions(data, prettyOptions), nil
}

// Write encodes the catalog and replaces the file at path, creating parent
// directories as needed. The bytes go to a temporary file in the same
// directory first and are renamed over path, so the target is never left
// half written.
func Write(path string, c *Catalog) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".symbols-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s to %s: %w", tmpName, path, err)
	}

	return nil
}
