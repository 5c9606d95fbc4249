package history

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveArtifact writes image bytes under the artifacts directory, named by
// the turn id. Returns the absolute path of the written file.
func SaveArtifact(dir, turnID string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifacts directory: %w", err)
	}
	path := filepath.Join(dir, turnID+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}
