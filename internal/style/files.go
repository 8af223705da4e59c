package style

import (
	"fmt"
	"os"
	"path/filepath"
)

// SLDFileName builds the file name for a standalone .sld export. With a
// prefix the files get a zero-padded sequence number so the folder keeps the
// layer panel order; without one the sanitized layer name stands alone.
func SLDFileName(prefix string, seq int, cleanName string) string {
	if prefix == "" {
		return cleanName + ".sld"
	}
	return fmt.Sprintf("%s_%02d_%s.sld", prefix, seq, cleanName)
}

// WriteSLDFile writes one SLD payload into folder, creating the folder on
// first use.
func WriteSLDFile(folder, fileName, sld string) (string, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", fmt.Errorf("failed to create SLD folder %s: %w", folder, err)
	}
	path := filepath.Join(folder, fileName)
	if err := os.WriteFile(path, []byte(sld), 0644); err != nil {
		return "", fmt.Errorf("failed to write SLD file %s: %w", path, err)
	}
	return path, nil
}
