// Package versioning fingerprints project config files so a container can
// record which configuration it was created from.
package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// LabelConfigHash is the container label holding the config fingerprint.
const LabelConfigHash = "io.dock.config-sha256"

// CalculateFileHash computes SHA-256 hash of a file.
func CalculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HasConfigChanged reports whether the config at filePath differs from the
// fingerprint recorded in a container's labels. Containers without a
// recorded fingerprint are never reported as changed.
func HasConfigChanged(labels map[string]string, filePath string) (bool, error) {
	stored, ok := labels[LabelConfigHash]
	if !ok || stored == "" {
		return false, nil
	}

	current, err := CalculateFileHash(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to calculate hash for %s: %w", filePath, err)
	}

	return stored != current, nil
}
